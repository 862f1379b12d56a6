// Package tagger writes ID3 metadata and cover art into MP3 files.
package tagger

import (
	"context"
	"fmt"

	"github.com/bogem/id3v2/v2"
	"go.uber.org/zap"

	"tunegrab/internal/core"
)

const (
	coverMimeType    = "image/jpeg"
	coverDescription = "Cover"
	yearLength       = 4
)

// Tagger writes tags in place. It never removes the file it works on.
type Tagger struct {
	logger *zap.Logger
	covers *coverFetcher
}

// New creates a Tagger that downloads cover art over HTTP.
func New(logger *zap.Logger) *Tagger {
	return &Tagger{
		logger: logger,
		covers: newCoverFetcher(newHTTPClient()),
	}
}

// Tag sets title, artist and album, plus the front cover when the album has art.
// Cover art problems are logged and skipped.
func (t *Tagger) Tag(ctx context.Context, path string, meta *core.TrackMetadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tags: %w", err)
	}
	defer func() {
		_ = tag.Close()
	}()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(meta.Name)
	tag.SetArtist(meta.Artist)
	tag.SetAlbum(meta.Album)
	if len(meta.ReleaseDate) >= yearLength {
		tag.SetYear(meta.ReleaseDate[:yearLength])
	}

	if meta.AlbumArtURL != "" {
		t.attachCover(ctx, tag, meta.AlbumArtURL)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	return nil
}

func (t *Tagger) attachCover(ctx context.Context, tag *id3v2.Tag, artURL string) {
	cover, err := t.covers.Fetch(ctx, artURL)
	if err != nil {
		t.logger.Warn("Skipping cover art", zap.String("url", artURL), zap.Error(err))
		return
	}

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    coverMimeType,
		PictureType: id3v2.PTFrontCover,
		Description: coverDescription,
		Picture:     cover,
	})
}

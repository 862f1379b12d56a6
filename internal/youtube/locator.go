package youtube

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"tunegrab/internal/core"
	"tunegrab/pkg/text"
)

// ErrNoResults is returned when a search yields no entries.
var ErrNoResults = errors.New("no search results")

// Locator finds the top search hit for a track.
type Locator struct {
	maxResults int
	logger     *zap.Logger
	newSearch  func() runner
}

// NewLocator creates a Locator running yt-dlp from executable (PATH when empty).
func NewLocator(executable string, maxResults int, logger *zap.Logger) *Locator {
	return &Locator{
		maxResults: maxResults,
		logger:     logger,
		newSearch: func() runner {
			return baseCommand(executable).
				FlatPlaylist().
				DumpSingleJSON().
				NoWarnings().
				Quiet()
		},
	}
}

// Locate searches for "artist - title audio" and returns the first hit only.
func (l *Locator) Locate(ctx context.Context, artist, title string) (*core.Source, error) {
	query := text.BuildSearchQuery(artist, title)
	target := fmt.Sprintf("ytsearch%d:%s", l.maxResults, query)

	l.logger.Debug("Searching for source", zap.String("query", query))

	result, err := l.newSearch().Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	source, err := firstEntry(result.Stdout)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	l.logger.Debug("Found source",
		zap.String("videoID", source.ID),
		zap.String("title", source.Title))

	return source, nil
}

// firstEntry picks the first usable entry of a flat playlist JSON dump.
func firstEntry(dump string) (*core.Source, error) {
	if !gjson.Valid(dump) {
		return nil, fmt.Errorf("invalid search output")
	}

	for _, entry := range gjson.Get(dump, "entries").Array() {
		id := entry.Get("id").String()
		if id == "" {
			continue
		}
		return &core.Source{
			ID:    id,
			Title: entry.Get("title").String(),
			URL:   fmt.Sprintf(WatchURLTemplate, id),
		}, nil
	}

	return nil, ErrNoResults
}

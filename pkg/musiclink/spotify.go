package musiclink

import (
	"net/url"
	"strings"

	"tunegrab/internal/core"
)

const (
	spotifyHost = "spotify.com"
	// minPathSegments is the content type followed by the identifier.
	minPathSegments = 2
	// localePrefix marks localized share links such as /intl-de/track/...
	localePrefix = "intl-"
)

var supportedContentTypes = map[string]core.ContentType{
	"track":    core.ContentTypeTrack,
	"album":    core.ContentTypeAlbum,
	"playlist": core.ContentTypePlaylist,
}

// SpotifyResolver parses open.spotify.com share links.
type SpotifyResolver struct{}

var _ core.LinkResolver = (*SpotifyResolver)(nil)

// NewSpotifyResolver creates a new Spotify link resolver.
func NewSpotifyResolver() *SpotifyResolver {
	return &SpotifyResolver{}
}

// Resolve extracts the content type and identifier. The query string is ignored.
func (r *SpotifyResolver) Resolve(rawURL string) (*core.TrackReference, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, ErrNotResolvable
	}

	if !strings.Contains(strings.ToLower(u.Host), spotifyHost) {
		return nil, ErrNotResolvable
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && strings.HasPrefix(segments[0], localePrefix) {
		segments = segments[1:]
	}

	if len(segments) < minPathSegments {
		return nil, ErrNotResolvable
	}

	contentType, ok := supportedContentTypes[segments[0]]
	if !ok || segments[1] == "" {
		return nil, ErrNotResolvable
	}

	return &core.TrackReference{Type: contentType, ID: segments[1]}, nil
}

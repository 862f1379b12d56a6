// Package spotify provides Spotify Web API integration for track metadata lookup.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"tunegrab/internal/core"
)

// ErrNotAuthenticated is returned when FetchTrack is called before Authenticate.
var ErrNotAuthenticated = errors.New("client not authenticated")

type Client struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	client *spotify.Client
}

func NewClient(config *core.SpotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
	}
}

// newClientWithHTTP builds a client that talks to baseURL through httpClient.
func newClientWithHTTP(httpClient *http.Client, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		logger: logger,
		client: spotify.New(httpClient, spotify.WithBaseURL(baseURL)),
	}
}

// Authenticate sets up the client credentials flow. Tokens are fetched lazily
// and refreshed by the returned HTTP client.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return fmt.Errorf("spotify client credentials are not configured")
	}

	cc := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	if _, err := cc.Token(ctx); err != nil {
		return fmt.Errorf("failed to obtain spotify token: %w", err)
	}

	c.client = spotify.New(cc.Client(ctx))
	c.logger.Info("Spotify client authenticated")

	return nil
}

// FetchTrack loads a single track record.
func (c *Client) FetchTrack(ctx context.Context, trackID string) (*core.TrackMetadata, error) {
	if c.client == nil {
		return nil, ErrNotAuthenticated
	}

	track, err := c.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	meta := convertSpotifyTrack(track)

	c.logger.Debug("Fetched track metadata",
		zap.String("trackID", meta.ID),
		zap.String("artist", meta.Artist),
		zap.String("name", meta.Name))

	return meta, nil
}

func convertSpotifyTrack(track *spotify.FullTrack) *core.TrackMetadata {
	artist := core.UnknownArtist
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}

	var artURL string
	if len(track.Album.Images) > 0 {
		artURL = track.Album.Images[0].URL
	}

	return &core.TrackMetadata{
		ID:          string(track.ID),
		Name:        track.Name,
		Artist:      artist,
		Album:       track.Album.Name,
		DurationMs:  int(track.Duration),
		AlbumArtURL: artURL,
		ReleaseDate: track.Album.ReleaseDate,
		Popularity:  int(track.Popularity),
	}
}

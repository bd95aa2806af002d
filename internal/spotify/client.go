// Package spotify provides track metadata lookups through the Spotify Web
// API using the client-credentials grant. No user authorization is involved;
// the service only reads public track data.
package spotify

import (
	"context"
	"fmt"
	"regexp"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"tunebridge/internal/core"
)

var (
	trackURLRegex = regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/(?:intl-[a-z]{2}/)?track/([a-zA-Z0-9]+)`)
	trackURIRegex = regexp.MustCompile(`spotify:track:([a-zA-Z0-9]+)`)
)

// tokenURL is a variable so tests can point the token exchange at a stub.
var tokenURL = spotifyauth.TokenURL

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

// Connect verifies the client credentials and builds the API client over the
// client-credentials token source. Client-credentials tokens carry no refresh
// token, so the source re-exchanges the credentials whenever the current
// token expires; Connect is called once at startup.
func (c *Client) Connect(ctx context.Context) error {
	cc := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     tokenURL,
	}

	source := cc.TokenSource(ctx)
	if _, err := source.Token(); err != nil {
		return fmt.Errorf("spotify token exchange: %w", err)
	}

	c.client = spotify.New(oauth2.NewClient(ctx, source))

	c.logger.Info("Spotify metadata client ready")
	return nil
}

// TrackQuery resolves a Spotify track link to search metadata: the combined
// "title artist" query plus the individual fields. Failures wrap
// core.ErrUpstreamMetadata.
func (c *Client) TrackQuery(ctx context.Context, trackURL string) (*core.TrackMetadata, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: spotify client not connected", core.ErrUpstreamMetadata)
	}

	id, err := ExtractTrackID(trackURL)
	if err != nil {
		return nil, err
	}

	track, err := c.client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch track %s: %v", core.ErrUpstreamMetadata, id, err)
	}

	artist := ""
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}

	return &core.TrackMetadata{
		Query:    fmt.Sprintf("%s %s", track.Name, artist),
		Title:    track.Name,
		Artist:   artist,
		Duration: int(track.Duration) / 1000,
	}, nil
}

// ExtractTrackID pulls the track ID out of an open.spotify.com link or a
// spotify:track: URI.
func ExtractTrackID(raw string) (string, error) {
	if m := trackURLRegex.FindStringSubmatch(raw); len(m) == 2 {
		return m[1], nil
	}
	if m := trackURIRegex.FindStringSubmatch(raw); len(m) == 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: no track ID in %q", core.ErrInvalidInput, raw)
}

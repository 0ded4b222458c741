// Package spotify reads playlist metadata from the Spotify Web API using the
// client-credentials flow.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"github.com/ewilliams-labs/vibecover/internal/core/ports"
)

const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultBaseURL  = "https://api.spotify.com/v1"

	serviceName = "spotify"

	// playlistFields limits the playlist payload to what the summary renders.
	playlistFields = "name,description,tracks.items(track(name,artists(name)))"
)

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	oauth      clientcredentials.Config
	logger     *zap.Logger
}

// compile-time interface assertion
var _ ports.PlaylistReader = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for both the token exchange and API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points API calls at a different host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTokenURL overrides the accounts token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) {
		if tokenURL != "" {
			c.oauth.TokenURL = tokenURL
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a new Spotify client.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		oauth: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     DefaultTokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate exchanges the client credentials for a bearer token. A fresh
// token is requested on every call.
func (c *Client) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Token(ctx)
	if err != nil {
		status := 0
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return nil, &domain.UpstreamError{
			Service:    serviceName,
			StatusCode: status,
			Kind:       domain.ErrUpstreamAuth,
			Err:        err,
		}
	}
	if token.AccessToken == "" {
		return nil, &domain.UpstreamError{
			Service: serviceName,
			Kind:    domain.ErrUpstreamAuth,
			Err:     errors.New("token response has no access_token"),
		}
	}
	return token, nil
}

// FetchSummary loads a playlist's name, description and up to 50 tracks and
// renders them as a plain-text summary.
func (c *Client) FetchSummary(ctx context.Context, playlistID string, token *oauth2.Token) (domain.PlaylistSummary, error) {
	playlist, err := c.getPlaylist(ctx, playlistID, token)
	if err != nil {
		return "", err
	}
	c.logger.Debug("spotify playlist fetched",
		zap.String("playlist_id", playlistID),
		zap.Int("tracks", len(playlist.Tracks)))
	return playlist.Summary(), nil
}

func (c *Client) getPlaylist(ctx context.Context, playlistID string, token *oauth2.Token) (domain.Playlist, error) {
	q := url.Values{}
	q.Set("fields", playlistFields)
	q.Set("limit", fmt.Sprint(domain.MaxSummaryTracks))
	endpoint := fmt.Sprintf("%s/playlists/%s?%s", c.baseURL, url.PathEscape(playlistID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("spotify adapter: build request: %w", err)
	}
	if token != nil {
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Playlist{}, &domain.UpstreamError{Service: serviceName, Kind: domain.ErrUpstreamFetch, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Playlist{}, &domain.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Kind:       domain.ErrUpstreamFetch,
			Err:        fmt.Errorf("GET playlist %s", playlistID),
		}
	}

	var sp spotifyPlaylist
	if err := json.NewDecoder(resp.Body).Decode(&sp); err != nil {
		return domain.Playlist{}, fmt.Errorf("spotify adapter: decode playlist: %w", err)
	}

	return mapPlaylistToDomain(sp), nil
}

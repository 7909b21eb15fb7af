// Spotify Web API implementation of [ListeningData]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com"

	topArtistsLimit     = 50
	topArtistsTimeRange = "medium_term"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Popularity int            `json:"popularity"`
	Images     []SpotifyImage `json:"images"`
	URI        string         `json:"uri"`
}

// SpotifyTopArtists is the body of /me/top/artists. Only Items is read.
type SpotifyTopArtists struct {
	Items []SpotifyArtist `json:"items"`
	Total int             `json:"total"`
	Limit int             `json:"limit"`
}

// RemoteAPIError is a non-success response from the Web API.
type RemoteAPIError struct {
	StatusCode int
	Message    string
}

func (e *RemoteAPIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
}

// Unwrap lets callers match [shared.ErrAPIRequest] with errors.Is.
func (e *RemoteAPIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// SpotifyClient calls the Spotify Web API with a caller-supplied credential.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
	logger     *log.Logger
}

// ClientOpts contains configuration options for creating a [SpotifyClient].
type ClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64 // zero disables pacing
	Logger            *log.Logger
	Now               func() time.Time
}

// NewSpotifyClient creates a new [SpotifyClient] with the provided configuration
func NewSpotifyClient(opts ClientOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SpotifyClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		now:        opts.Now,
		logger:     opts.Logger,
	}
}

// NewSpotifyClientFromConfig creates a [SpotifyClient] from the [spotify] config section.
func NewSpotifyClientFromConfig(cfg shared.SpotifyAPIConfig, logger *log.Logger) *SpotifyClient {
	httpClient := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return NewSpotifyClient(ClientOpts{
		BaseURL:           cfg.BaseURL,
		HTTPClient:        httpClient,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})
}

// FetchTopArtists retrieves the user's top artists.
//
// A body without items yields an empty slice.
func (s *SpotifyClient) FetchTopArtists(ctx context.Context, cred *models.Credential) ([]models.Artist, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(topArtistsLimit))
	query.Set("time_range", topArtistsTimeRange)

	var response SpotifyTopArtists
	if err := s.doRequest(ctx, cred, "/v1/me/top/artists?"+query.Encode(), &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Items))
	for _, a := range response.Items {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name, Genres: a.Genres})
	}

	s.logger.Debug("fetched top artists", "count", len(artists))
	return artists, nil
}

// CurrentUser retrieves the profile of the credential's owner.
func (s *SpotifyClient) CurrentUser(ctx context.Context, cred *models.Credential) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, cred, "/v1/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// doRequest performs an authenticated GET and decodes a JSON body into result.
func (s *SpotifyClient) doRequest(ctx context.Context, cred *models.Credential, endpoint string, result any) error {
	if cred == nil {
		return shared.ErrNotAuthenticated
	}
	if !cred.Valid(s.now()) {
		return shared.ErrTokenExpired
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	cred.Token().SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &RemoteAPIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		s.logger.Warn("spotify request failed", "endpoint", endpoint, "status", resp.StatusCode)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}

	return nil
}

// errorMessage extracts error.message from a Web API error object, if present.
func errorMessage(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error.Message
}

package auth

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
	"golang.org/x/oauth2"
)

const (
	// AuthorizeURL is Spotify's authorization endpoint.
	AuthorizeURL = "https://accounts.spotify.com/authorize"

	// DefaultLifetime applies when the redirect omits expires_in or sends a non-integer.
	DefaultLifetime = 3600 * time.Second
)

// DefaultScopes grants read access to the user's top artists and tracks.
var DefaultScopes = []string{"user-top-read"}

// BuildAuthorizationURL returns the authorize URL for the implicit grant.
//
// The consent dialog is always forced. An empty client id fails with [shared.ErrMissingConfig].
func BuildAuthorizationURL(clientID, redirectURI string, scopes []string) (string, error) {
	return buildURL(clientID, redirectURI, scopes, "")
}

func buildURL(clientID, redirectURI string, scopes []string, state string) (string, error) {
	if strings.TrimSpace(clientID) == "" {
		return "", fmt.Errorf("%w: spotify client_id is empty", shared.ErrMissingConfig)
	}
	if redirectURI == "" {
		return "", fmt.Errorf("%w: spotify redirect_uri is empty", shared.ErrMissingConfig)
	}

	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: AuthorizeURL},
	}

	return config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.SetAuthURLParam("show_dialog", "true"),
	), nil
}

// ParseCredentialFromFragment extracts a credential from a redirect fragment.
//
// Returns nil when the fragment does not start with '#' or carries no access_token.
func ParseCredentialFromFragment(fragment string, now time.Time) *models.Credential {
	cred, err := ParseFragment(fragment, now)
	if err != nil {
		return nil
	}
	return cred
}

// ParseFragment is [ParseCredentialFromFragment] with the reason for rejection.
//
// Every rejection wraps [shared.ErrInvalidRedirect]; a provider error such as access_denied is included in the message.
func ParseFragment(fragment string, now time.Time) (*models.Credential, error) {
	params, err := fragmentValues(fragment)
	if err != nil {
		return nil, err
	}

	token := params.Get("access_token")
	if token == "" {
		if reason := params.Get("error"); reason != "" {
			return nil, fmt.Errorf("%w: provider returned %s", shared.ErrInvalidRedirect, reason)
		}
		return nil, fmt.Errorf("%w: no access_token", shared.ErrInvalidRedirect)
	}

	return models.NewCredential(token, now, lifetime(params.Get("expires_in"))), nil
}

// FragmentState returns the state parameter echoed back in the fragment, if any.
func FragmentState(fragment string) string {
	params, err := fragmentValues(fragment)
	if err != nil {
		return ""
	}
	return params.Get("state")
}

func fragmentValues(fragment string) (url.Values, error) {
	if !strings.HasPrefix(fragment, "#") {
		return nil, fmt.Errorf("%w: not a redirect fragment", shared.ErrInvalidRedirect)
	}

	// ParseQuery keeps every well-formed pair even when a later one fails to decode.
	params, _ := url.ParseQuery(fragment[1:])
	return params, nil
}

// lifetime converts expires_in seconds into a duration, defaulting when absent or unparsable.
// Zero or negative values mean the token is already expired.
func lifetime(raw string) time.Duration {
	if raw == "" {
		return DefaultLifetime
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLifetime
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Codec binds application configuration and a clock to the codec functions.
type Codec struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	Now         func() time.Time
}

// NewCodec creates a [Codec] from the Spotify credentials section of the config.
//
// A placeholder client id is kept empty so that [Codec.AuthorizationURL] reports missing configuration.
func NewCodec(cfg shared.SpotifyConfig) *Codec {
	c := &Codec{RedirectURI: cfg.RedirectURI, Scopes: cfg.Scopes, Now: time.Now}
	if cfg.HasClientID() {
		c.ClientID = strings.TrimSpace(cfg.ClientID)
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	return c
}

// AuthorizationURL builds the authorize URL, adding state when non-empty.
func (c *Codec) AuthorizationURL(state string) (string, error) {
	return buildURL(c.ClientID, c.RedirectURI, c.Scopes, state)
}

// Parse parses a redirect fragment using the codec's clock.
func (c *Codec) Parse(fragment string) (*models.Credential, error) {
	return ParseFragment(fragment, c.now())
}

func (c *Codec) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

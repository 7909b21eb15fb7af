// package services defines the listening-data client for the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/topgenres/internal/models"
)

// ListeningData fetches a user's listening history with a bearer credential.
type ListeningData interface {
	// FetchTopArtists returns up to 50 of the user's top artists over the medium-term range.
	FetchTopArtists(ctx context.Context, cred *models.Credential) ([]models.Artist, error)
}

// Profiler resolves the user a credential belongs to.
type Profiler interface {
	CurrentUser(ctx context.Context, cred *models.Credential) (*SpotifyUser, error)
}

var (
	_ ListeningData = (*SpotifyClient)(nil)
	_ Profiler      = (*SpotifyClient)(nil)
)

// package services defines the catalog interface used by imports and its Spotify implementation
package services

import (
	"context"

	"github.com/desertthunder/sheetify/internal/models"
	"golang.org/x/oauth2"
)

// Catalog is the remote search-and-playlist service an import talks to.
type Catalog interface {
	// FirstTrack runs a single search limited to one result.
	// found is false when the search returned nothing usable; err is reserved for failed calls.
	FirstTrack(ctx context.Context, query string) (track models.ResolvedTrack, found bool, err error)

	// CurrentUserID returns the id of the authenticated user.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates a new, empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.PlaylistHandle, error)

	// AddTracks appends at most [MaxItemsPerAdd] track URIs to a playlist in one call.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is a [Catalog] that authenticates with the OAuth2 authorization code flow.
type OAuthService interface {
	Catalog

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the client configuration for the callback handler.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate attaches token to the service's HTTP client.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// Spotify Web API implementation of [Catalog]
//
// Requests go through github.com/zmb3/spotify/v2 on top of an [oauth2] HTTP client.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	trackURIPrefix = "spotify:track:"
)

// MaxItemsPerAdd is the Spotify limit for items added to a playlist in one request.
const MaxItemsPerAdd = 100

// Scopes requested during authorization.
var Scopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
	"user-read-private",
}

// SpotifyService implements [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	client         *spotify.Client
	clientOpts     []spotify.ClientOption
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// opts are passed to [spotify.New] when the service is authenticated.
func NewSpotifyService(cfg shared.SpotifyConfig, opts ...spotify.ClientOption) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrMissingCredentials)
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		clientOpts: append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 client configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to be called whenever the token source hands out a new access token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// OAuthenticate attaches token to the service. Expired tokens are refreshed by the oauth2 transport.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}

	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}

	s.token = token
	s.client = spotify.New(oauth2.NewClient(ctx, source), s.clientOpts...)
	return nil
}

func (s *SpotifyService) ready() error {
	if s.client == nil {
		return fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// FirstTrack searches for tracks matching query and returns the top hit.
func (s *SpotifyService) FirstTrack(ctx context.Context, query string) (models.ResolvedTrack, bool, error) {
	if err := s.ready(); err != nil {
		return models.ResolvedTrack{}, false, err
	}

	result, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return models.ResolvedTrack{}, false, classify("search", err)
	}

	track, found := firstTrack(result)
	return track, found, nil
}

// firstTrack extracts the first usable track from a search result.
// Any missing piece of the response collapses to "not found".
func firstTrack(result *spotify.SearchResult) (models.ResolvedTrack, bool) {
	if result == nil || result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return models.ResolvedTrack{}, false
	}

	t := result.Tracks.Tracks[0]
	uri := string(t.URI)
	if uri == "" && t.ID != "" {
		uri = trackURIPrefix + string(t.ID)
	}
	if uri == "" {
		return models.ResolvedTrack{}, false
	}

	track := models.ResolvedTrack{URI: uri, ID: string(t.ID), Name: t.Name}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track, true
}

// CurrentUserID returns the id of the authenticated user.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", classify("current user", err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: current user response has no id", shared.ErrAPIRequest)
	}
	return user.ID, nil
}

// CreatePlaylist creates a non-collaborative playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.PlaylistHandle, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	p, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, classify("create playlist", err)
	}

	return &models.PlaylistHandle{
		ID:     string(p.ID),
		Name:   p.Name,
		URL:    p.ExternalURLs["spotify"],
		Public: p.IsPublic,
	}, nil
}

// AddTracks adds one batch of track URIs to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxItemsPerAdd {
		return fmt.Errorf("%w: %d items exceeds the limit of %d per request", shared.ErrInvalidInput, len(uris), MaxItemsPerAdd)
	}

	ids := make([]spotify.ID, len(uris))
	for i, uri := range uris {
		ids[i] = spotify.ID(strings.TrimPrefix(uri, trackURIPrefix))
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return classify("add tracks", err)
	}
	return nil
}

// classify maps client errors onto the shared error taxonomy while keeping the original in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: token refresh failed: %w", shared.ErrNotAuthenticated, op, err)
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %w", shared.ErrNotAuthenticated, op, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s: %w", shared.ErrForbidden, op, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s: %w", shared.ErrRateLimited, op, err)
		}
	}

	return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
}

// IsFatal reports whether err should stop an import rather than mark a single row as failed.
func IsFatal(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, shared.ErrForbidden) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports new access tokens to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

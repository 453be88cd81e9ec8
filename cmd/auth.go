package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sheetify/internal/server"
	"github.com/desertthunder/sheetify/internal/services"
	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 flow for Spotify and caches the token.
//
// Starts a local HTTP server, opens the browser for user authorization, and exchanges the code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	spotifyService, err := r.newSpotifyService()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, spotifyService)
	if err != nil {
		return err
	}
	if err := r.saveToken(token); err != nil {
		return err
	}

	if err := spotifyService.OAuthenticate(ctx, token); err != nil {
		return err
	}
	userID, err := spotifyService.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("%s", r.palette.OK("✓ Authorized as "+userID))
	r.writePlain("✓ Token saved to %s\n\n", r.config.Credentials.Spotify.TokenPath)
	r.writePlain("You can now run: sheetify import -i %s\n", r.config.Import.InputPath)
	return nil
}

// Init writes the example configuration to the --config path.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("wrote config", "path", r.configPath)
	r.writePlain("✓ Wrote %s\n", r.configPath)
	r.writePlain("Set %s and %s there or in .env, then run: sheetify auth\n", shared.EnvClientID, shared.EnvClientSecret)
	return nil
}

// connect returns the catalog for an import, authorizing Spotify on first use.
//
// A cached token is reused when present; otherwise the browser flow runs and its token is cached.
func (r *Runner) connect(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	spotifyService, err := r.newSpotifyService()
	if err != nil {
		return nil, err
	}

	tokenPath := r.config.Credentials.Spotify.TokenPath
	token, err := shared.LoadToken(tokenPath)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.logger.Info("no cached token, starting authorization", "path", tokenPath)
		if token, err = r.doOAuth(ctx, spotifyService); err != nil {
			return nil, err
		}
		if err := r.saveToken(token); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		r.logger.Debug("using cached token", "path", tokenPath, "expiry", token.Expiry)
	}

	if err := spotifyService.OAuthenticate(ctx, token); err != nil {
		return nil, err
	}

	r.catalog = spotifyService
	return spotifyService, nil
}

func (r *Runner) newSpotifyService() (*services.SpotifyService, error) {
	spotifyService, err := services.NewSpotifyService(r.config.Credentials.Spotify)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	spotifyService.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveToken(token); err != nil {
			r.logger.Warn("failed to cache refreshed token", "err", err)
			return
		}
		r.logger.Debug("cached refreshed token", "expiry", token.Expiry)
	})
	return spotifyService, nil
}

func (r *Runner) saveToken(token *oauth2.Token) error {
	path := r.config.Credentials.Spotify.TokenPath
	if path == "" {
		return nil
	}
	if err := shared.SaveToken(path, token); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	redirectURI := r.config.Credentials.Spotify.RedirectURI
	path, err := server.CallbackPath(redirectURI)
	if err != nil {
		return nil, err
	}

	handler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state, path)
	callbackServer, err := server.ListenForCallback(redirectURI, handler, server.LogRequests(r.logger))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := callbackServer.Shutdown(); err != nil {
			r.logger.Warn("error shutting down callback server", "err", err)
		}
	}()
	r.logger.Info("waiting for OAuth callback", "addr", callbackServer.Addr(), "path", path)

	authURL := oauthSrv.GetAuthURL(state)
	r.writePlain("→ Opening browser for %s authorization...\n", oauthSrv.Name())
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "err", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := callbackServer.Wait(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	return token, nil
}

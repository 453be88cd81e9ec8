// package server serves the local OAuth callback used to authorize sheetify
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/sheetify/internal/shared"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// CallbackServer listens on the redirect URI's host and port until one callback arrives.
type CallbackServer struct {
	httpServer *http.Server
	listener   net.Listener
	handler    *OAuthHandler
	errs       chan error
}

// CallbackPath returns the path component of redirectURI, defaulting to "/callback".
func CallbackPath(redirectURI string) (string, error) {
	u, err := parseRedirect(redirectURI)
	if err != nil {
		return "", err
	}
	if u.Path == "" || u.Path == "/" {
		return "/callback", nil
	}
	return u.Path, nil
}

// ListenForCallback binds the redirect URI's address and starts serving handler.
//
// The listener is bound before returning so the browser can be opened immediately.
func ListenForCallback(redirectURI string, handler *OAuthHandler, middleware ...Middleware) (*CallbackServer, error) {
	u, err := parseRedirect(redirectURI)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	router := NewBasicRouter()
	router.Use(middleware...)
	router.Handler(handler)

	s := &CallbackServer{
		httpServer: &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		listener:   listener,
		handler:    handler,
		errs:       make(chan error, 1),
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	return s, nil
}

// Addr returns the address the server is listening on.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// Wait blocks until the callback delivers a token, the server fails, or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	select {
	case result := <-s.handler.Result():
		if result.Error() != nil {
			return nil, result.Error()
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return result.Token, nil
	case err := <-s.errs:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no authorization received", shared.ErrTimeout)
		}
		return nil, ctx.Err()
	}
}

// Shutdown stops the server, waiting up to five seconds for the callback response to finish.
func (s *CallbackServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func parseRedirect(redirectURI string) (*url.URL, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect URI %q: %v", shared.ErrInvalidConfig, redirectURI, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: redirect URI %q has no host", shared.ErrInvalidConfig, redirectURI)
	}
	return u, nil
}

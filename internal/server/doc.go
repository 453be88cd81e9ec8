// Package server runs the short-lived HTTP server that completes Spotify authorization.
//
// # OAuth Callback
//
// [OAuthHandler] implements the redirect leg of the OAuth2 authorization code flow. It checks
// the state parameter, exchanges the code for a token, and publishes the outcome on
// [OAuthHandler.Result]. Only the first callback is processed.
//
// [ListenForCallback] binds the host and port of the configured redirect URI (for example
// http://localhost:8888/callback), serves the handler on the URI's path, and
// [CallbackServer.Wait] blocks until a token arrives or the context ends.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux]. [Middleware] is applied with the first added as the
// outermost layer; [LogRequests] logs each callback request at debug level.
package server

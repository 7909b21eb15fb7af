// Package server provides the local HTTP listener that completes the implicit grant.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] uses [http.ServeMux] method patterns such as "GET /callback".
//
// # Callback Handler
//
// The implicit grant returns the access token in the URL fragment, which browsers never send to a server.
// [CallbackHandler] therefore serves a page on GET /callback whose script reads location.hash,
// strips it from the address bar and posts it to /callback/token. The POST is parsed with the
// [auth.Codec], the state parameter is checked, and exactly one [CallbackResult] is delivered on
// [CallbackHandler.Result]. Later callbacks are rejected.
//
// # Lifecycle
//
// [Server] binds its listener synchronously so a busy port fails before the browser opens,
// then serves in the background until [Server.Shutdown].
package server

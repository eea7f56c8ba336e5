// Package server provides HTTP routing, middleware and the listener lifecycle used to expose metrics.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers so the first one added runs outermost. [Logging] records each request at debug level.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [Health] is the smallest example.
//
// # Lifecycle
//
// [Start] binds the address synchronously and shuts the server down when its context is cancelled,
// so a listener lives exactly as long as the command that started it.
package server

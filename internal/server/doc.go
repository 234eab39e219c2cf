// Package server provides HTTP routing, middleware, and the read-mostly HTTP surface of the match logger.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Routes
//
// [New] registers:
//   - /healthz, /readyz : liveness, and readiness once a taxonomy snapshot is loaded
//   - GET /metrics : Prometheus exposition of the metrics registry
//   - GET /taxonomy : the current normalized snapshot with issue counts
//   - GET /events : the match log, filtered by team, player_id, limit; ?format= selects csv, markdown, or txt
//   - DELETE /events/{id} : removes one logged event
//
// Every request passes through [LoggingMiddleware] and, when metrics are enabled, [MetricsMiddleware].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

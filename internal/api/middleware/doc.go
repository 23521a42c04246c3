// Package middleware provides the HTTP middleware of the codepad server.
//
// Middleware stack includes:
//   - RequestID: assigns or propagates X-Request-ID
//   - Logger: one structured zap line per request
//   - CORS: cross-origin access for the editor UI
//   - RateLimit: per-IP token bucket rate limiting
//
// Rate Limiting:
//   - Per-IP tracking; idle clients are swept after IdleTTL
//   - Token bucket algorithm (golang.org/x/time/rate)
//   - Global rate limiting option
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware

// Package server provides the HTTP server for the authentication service,
// using Gin behind an h2c handler.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Authenticate / RequireRole: Bearer access credentials and role checks
//   - Recovery: panic recovery with structured logging
//   - RequestLogger: request logging with duration tracking
//   - CORS: cross-origin resource sharing
//   - RequestID: request id generation and propagation
//   - RateLimit: per-client token bucket
//   - BodySizeLimit: request body size limits
//   - Telemetry: server spans and request metrics
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /alive: liveness probe
//   - /ready: readiness probe
//   - /info, /version: build information
//
// The authentication routes live in server/handlers.
package server

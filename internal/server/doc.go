// Package server provides the HTTP server of the batch tone mapper.
//
// The server is a plain Gin engine with two middleware and a single route
// group. Handlers are registered by the caller:
//
//	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
//	    v1.RegisterHandlers(router, handler)
//	})
//
// # Middleware
//
//	┌───────────────────────────────────────────────────────────────┐
//	│  middlewares.Logger      request start/end, status, latency   │
//	│  ginzap.RecoveryWithZap  panic recovery with stack trace      │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Router (/api/v1)                        │
//	│  POST   /tonemap        start a batch                         │
//	│  GET    /tonemap        batch status                          │
//	│  DELETE /tonemap        cancel the batch                      │
//	│  GET    /log            batch log, ?filter=<regexp>           │
//	│  GET    /history        recorded item results                 │
//	│  GET    /batches[/:id]  recorded batches                      │
//	└───────────────────────────────────────────────────────────────┘
//
// Unknown routes answer 404 with a JSON error body.
//
// # Modes
//
// ServerMode "prod" puts Gin in release mode; anything else runs in debug
// mode. The server listens on plain HTTP on Server.HTTPPort.
//
// # Lifecycle
//
// Start blocks until the context is cancelled or the listener fails. When the
// context is cancelled the server shuts down gracefully, waiting for in-flight
// requests, and Start returns nil. Stop may also be called directly.
package server

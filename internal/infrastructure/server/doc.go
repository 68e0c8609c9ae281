// Package server assembles the gin engine, its middleware chain and the
// net/http server around the application context.
//
// Middleware order: recovery, tracing, metrics, CORS, then rate limiting
// when enabled. Responses are gzip-compressed except WebSocket upgrades.
package server

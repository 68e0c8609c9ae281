// Package main is the entry point for the Theta browsing backend.
//
// The server keeps the tab registry for the desktop shell, extracts page
// content on request and streams tab changes over WebSocket.
//
// Architecture:
//
//	Desktop shell → HTTP/WebSocket → tab registry
//	                              → content extraction → fetch client → web
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional config file via -config or $THETA_CONFIG (.yaml, .toml, .json)
//   - CLI flags -port and -host override both
//
// Usage:
//
//	./server -port 8000
//	LOG_DEV=true LOG_LEVEL=debug ./server
//	./server -config theta.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

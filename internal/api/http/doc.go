// Package http exposes the tab registry and content extraction over a JSON
// HTTP API built on gin.
//
// Unknown tab ids on mutating routes are not errors: the response carries
// "success": false, matching the boolean results of the tab manager. Reads
// of a single tab answer 404 when it does not exist. Fetch failures map to
// 403 (blocked host), 503 (host breaker open) or 502 (anything else).
//
// Example Usage:
//
//	handlers := http.NewHandlers(appCtx)
//	handlers.Register(router)
package http

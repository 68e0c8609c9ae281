// Package middleware holds the gin middleware shared by the HTTP surface:
// CORS for the desktop shell and per-client rate limiting.
package middleware

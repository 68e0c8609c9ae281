// Package app builds the application context: every long-lived component
// of the backend, constructed once at start and handed explicitly to the
// transport layers.
//
// Example Usage:
//
//	appCtx, err := app.New(cfg, logger)
//	if err != nil { ... }
//	defer appCtx.Close()
package app

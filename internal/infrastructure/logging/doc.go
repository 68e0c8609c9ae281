// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for log shippers
//   - Development: colored console output
//
// Tab absence is never logged above debug; failed fetches are logged at warn
// by the API layer, which is the only place that knows the caller's intent.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Warn("Fetch failed", zap.String("url", url), zap.Error(err))
package logging

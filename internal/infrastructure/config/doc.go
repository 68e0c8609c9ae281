// Package config provides 12-factor configuration management for the Theta backend.
//
// Configuration is loaded from environment variables with defaults. A YAML,
// TOML or JSON file may be layered underneath: values from the file replace
// the defaults, and any environment variable that is set wins over both.
// CLI flags in cmd/server override the result.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - Fetch: outbound page fetching (user agent, timeout, size cap, deny-list)
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: allowed origins
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - FETCH_USER_AGENT, FETCH_TIMEOUT, FETCH_MAX_BODY_BYTES, FETCH_BLOCKED_HOSTS, FETCH_RPS
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS
//   - THETA_CONFIG (path of the optional config file)
package config

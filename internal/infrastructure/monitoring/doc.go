/*
Package monitoring provides Prometheus metrics for the Theta backend.

Each Metrics value owns its registry, so several can coexist in one process
(tests build one per server). The registry is exposed through Handler for the
/metrics route.

# Tracked

  - HTTP requests (count, latency, sizes) via Middleware
  - open tabs and tabs created
  - extractions by source (html, url, page) and outcome
  - fetch failures by kind, fetch latency, breaker state
  - event-stream connections and messages
  - uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "fetch")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring

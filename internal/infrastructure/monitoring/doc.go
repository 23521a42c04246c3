/*
Package monitoring provides Prometheus metrics for the codepad server.

# Overview

Metrics cover the HTTP surface, every project and session operation, the
autosave scheduler's writes, the store write guard, and change stream
connections.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "create_file")
	// ... perform operation ...
	timer.Stop(kind)

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring

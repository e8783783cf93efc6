/*
Package monitoring provides metrics collection for the export bridge.

# Overview

Metrics live in a private Prometheus registry so several bridges (and
tests) can coexist in one process. The collector doubles as the channel
call recorder, the write observer and the picker outcome observer.

# Features

- HTTP request metrics (latency, throughput, size)
- Channel call metrics (outcome, duration, error codes)
- Picker outcomes and subdirectory resolutions
- Exported bytes and documents

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring

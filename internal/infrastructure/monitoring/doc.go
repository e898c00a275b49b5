/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the island
engine, tracking ingestion volume, suppression reasons, island lifecycle
transitions, route dispatches, and HTTP surface traffic.

# Features

- Ingestion metrics (events by origin and category, malformed degradations)
- Suppression metrics (per reason code)
- Island lifecycle metrics (created/updated/completed, dedupes, preemptions)
- Route dispatch metrics (overlay/native/none, action errors)
- Priority engine metrics (throttle trips, burst drops)
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record pipeline metrics
	metrics.RecordIngested("post", "message")
	metrics.RecordSuppression("COOLDOWN")
	metrics.RecordTransition("CREATED")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring

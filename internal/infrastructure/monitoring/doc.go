/*
Package monitoring provides Prometheus metrics for the playground server.

# Overview

Metrics cover the HTTP surface, the composition and run pipeline, the
headless sandbox, the message bridge, fragment storage and the bridge
WebSocket. Each Metrics value owns a private registry.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// *Metrics satisfies playground.Metrics
	pg := playground.New(store, playground.WithMetrics(metrics))

	// Time storage calls
	timer := monitoring.NewTimer(metrics, "save")
	err := backend.Save(ctx, state)
	timer.Stop(err)
*/
package monitoring

// Package observability wires OpenTelemetry tracing and metrics.
//
// Spans are exported over OTLP HTTP when tracing is enabled. Metrics are
// recorded through the OpenTelemetry API into one pipeline that feeds the
// Prometheus scrape handler and, when configured, an OTLP collector.
//
//	mp, err := observability.InitMeter(ctx, cfg.Metrics, res, log)
//	defer mp.Shutdown(ctx)
//	router.GET("/metrics", gin.WrapH(mp.Handler()))
//
//	ctx, span := observability.StartSpan(ctx, "auth.sign_in")
//	defer observability.EndSpan(span, err)
package observability

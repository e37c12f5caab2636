// Package otel binds client metrics to an OpenTelemetry Meter.
//
// [NewExporter] registers a few observable instruments and splits them by
// attribute: goteam.session.events by event, goteam.requests and
// goteam.optimistic.transactions by outcome, goteam.cache.events by key
// domain and event, goteam.notifications by outcome, plus the
// goteam.cache.entries gauge and cumulative latency buckets keyed by le. A
// single callback reads Client.MetricsSnapshot per collection. The caller
// owns the MeterProvider.
package otel

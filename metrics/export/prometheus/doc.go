// Package prometheus exposes client metrics as a prometheus.Collector.
//
// Register an [Exporter] with your own registry, or mount [Exporter.Handler]
// which serves it from a private one. Counters are named goteam_*_total and
// request latency is the goteam_request_latency_seconds histogram.
package prometheus

// Package metrics provides build metrics for sitegen.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no call site needs a nil check. The serve command swaps in
// a PrometheusRecorder and exposes it on /metrics.
//
//	reg := prometheus.NewRegistry()
//	gen := generator.New(cfg, generator.WithRecorder(metrics.NewPrometheusRecorder(reg)))
package metrics

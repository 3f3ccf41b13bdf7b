package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitegen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	entryDuration *prom.HistogramVec
	entryResults  *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	functionCalls *prom.CounterVec
	concurrency   prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A
// nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		entryDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "entry_duration_seconds",
			Help:      "Time spent producing a single output entry",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		entryResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "entry_results_total",
			Help:      "Entry results by kind and outcome",
		}, []string{"kind", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Generation runs by final status",
		}, []string{"outcome"}),
		functionCalls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "function_calls_total",
			Help:      "Placeholder function invocations by name",
		}, []string{"function"}),
		concurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrency_limit",
			Help:      "Per-directory concurrency limit of the last run",
		}),
	}
	reg.MustRegister(pr.entryDuration, pr.entryResults, pr.buildDuration, pr.buildOutcome, pr.functionCalls, pr.concurrency)
	return pr
}

func (p *PrometheusRecorder) ObserveEntryDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.entryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncEntryResult(kind string, result ResultLabel) {
	if p == nil {
		return
	}
	p.entryResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncFunctionCall(name string) {
	if p == nil {
		return
	}
	p.functionCalls.WithLabelValues(name).Inc()
}

func (p *PrometheusRecorder) SetConcurrency(n int) {
	if p == nil {
		return
	}
	p.concurrency.Set(float64(n))
}

package metrics

import "time"

// ResultLabel enumerates per-entry result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a whole run.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeWarning  BuildOutcomeLabel = "warning" // finished with page failures
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for a generation run.
type Recorder interface {
	ObserveEntryDuration(kind string, d time.Duration)
	IncEntryResult(kind string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncFunctionCall(name string)
	SetConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveEntryDuration(string, time.Duration) {}
func (NoopRecorder) IncEntryResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) IncFunctionCall(string)                     {}
func (NoopRecorder) SetConcurrency(int)                         {}

package generator

import (
	"fmt"
	"sync"
	"time"
)

// Outcome is the final state of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Failure is one entry that produced no output.
type Failure struct {
	Path string
	Kind Kind
	Err  error
}

// Report captures what a generation run did. It is safe for concurrent use
// while the run is in progress.
type Report struct {
	RunID   string
	Input   string
	Output  string
	Start   time.Time
	End     time.Time
	Outcome Outcome

	mu       sync.Mutex
	written  map[Kind]int
	skipped  int
	failures []Failure
	fatal    error
}

func newReport(runID, input, output string) *Report {
	return &Report{
		RunID:   runID,
		Input:   input,
		Output:  output,
		Start:   time.Now(),
		written: make(map[Kind]int),
	}
}

func (r *Report) recordWritten(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written[kind]++
}

func (r *Report) recordSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *Report) recordFailure(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

// Written returns how many entries of kind produced output.
func (r *Report) Written(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written[kind]
}

// Total returns the number of files written.
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for kind, c := range r.written {
		if kind != KindDirectory {
			n += c
		}
	}
	return n
}

// Skipped returns the number of hidden entries that were passed over.
func (r *Report) Skipped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// Failures returns a copy of the recorded failures.
func (r *Report) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// finish stamps the end time and derives the outcome.
func (r *Report) finish(fatal error, canceled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.End = time.Now()
	r.fatal = fatal
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case fatal != nil:
		r.Outcome = OutcomeFailed
	case len(r.failures) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Summary returns a one-line human readable description of the run.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("outcome=%s markdown=%d html=%d assets=%d copied=%d failed=%d skipped=%d duration=%s",
		r.Outcome,
		r.written[KindMarkdown], r.written[KindHTML], r.written[KindAsset], r.written[KindCopy],
		len(r.failures), r.skipped, r.End.Sub(r.Start).Round(time.Millisecond))
}

// Err returns the error that aborted the run, if any.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fatal
}

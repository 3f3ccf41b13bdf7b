// Package retry holds the backoff policy applied to transient remote fetch
// failures.
package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/foundation/normalization"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

var modeNormalizer = normalization.NewNormalizer(map[string]Mode{
	"fixed":       ModeFixed,
	"linear":      ModeLinear,
	"exponential": ModeExponential,
}, ModeLinear)

// ParseMode validates raw. An empty value selects linear.
func ParseMode(raw string) (Mode, error) {
	return modeNormalizer.Parse(raw)
}

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       Mode
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // attempts after the first failure
}

// DefaultPolicy returns linear backoff, 500ms initial, 5s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeLinear, Initial: 500 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 2}
}

// None never retries.
func None() Policy {
	p := DefaultPolicy()
	p.MaxRetries = 0
	return p
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode Mode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if m, err := ParseMode(string(mode)); err == nil {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case ModeFixed:
		return p.Initial
	case ModeExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Wait sleeps for the delay of retryCount, returning early with the context
// error when ctx ends first.
func (p Policy) Wait(ctx context.Context, retryCount int) error {
	d := p.Delay(retryCount)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return errors.ValidationError("retry initial delay must be >0").Build()
	}
	if p.Max <= 0 {
		return errors.ValidationError("retry max delay must be >0").Build()
	}
	if p.MaxRetries < 0 {
		return errors.ValidationError("max retries cannot be negative").Build()
	}
	return nil
}

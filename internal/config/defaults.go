package config

import (
	"runtime"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/retry"
)

const (
	DefaultHighlightTimeout = 10 * time.Second
	DefaultFetchTimeout     = 30 * time.Second
	DefaultUserAgent        = "sitegen"
	DefaultFetchRetries     = 0
	DefaultRetryInitial     = 500 * time.Millisecond
	DefaultRetryMax         = 5 * time.Second
	DefaultServeHost        = "localhost"
	DefaultServePort        = 8080
	DefaultDebounce         = 200 * time.Millisecond
)

// defaults returns the lowest priority layer of the koanf stack. Durations
// are strings so that they decode the same way as file values.
func defaults() map[string]any {
	return map[string]any{
		"build.concurrency":      runtime.NumCPU(),
		"build.compress":         false,
		"build.clean":            false,
		"markdown.gfm":           true,
		"markdown.hard_wraps":    false,
		"markdown.unsafe":        true,
		"highlight.timeout":      DefaultHighlightTimeout.String(),
		"fetch.timeout":          DefaultFetchTimeout.String(),
		"fetch.user_agent":       DefaultUserAgent,
		"fetch.retries":          DefaultFetchRetries,
		"fetch.backoff":          string(retry.ModeLinear),
		"fetch.retry_initial":    DefaultRetryInitial.String(),
		"fetch.retry_max":        DefaultRetryMax.String(),
		"serve.host":             DefaultServeHost,
		"serve.port":             DefaultServePort,
		"serve.metrics":          true,
		"serve.debounce":         DefaultDebounce.String(),
		"serve.rebuild_interval": "0s",
		"logging.level":          string(LogLevelInfo),
		"logging.format":         string(LogFormatText),
	}
}

// applyDefaults fills values that an explicit empty setting may have zeroed.
func applyDefaults(cfg *Config) {
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = runtime.NumCPU()
	}
	if cfg.Highlight.Timeout <= 0 {
		cfg.Highlight.Timeout = DefaultHighlightTimeout
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = DefaultFetchTimeout
	}
	if cfg.Serve.Host == "" {
		cfg.Serve.Host = DefaultServeHost
	}
	if cfg.Serve.Debounce <= 0 {
		cfg.Serve.Debounce = DefaultDebounce
	}
	if cfg.Site.Globals == nil {
		cfg.Site.Globals = map[string]any{}
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}

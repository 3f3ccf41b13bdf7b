// Package config loads sitegen settings from sitegen.yaml, .env files and
// SITEGEN_ environment variables.
package config

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// Config is the complete sitegen configuration.
type Config struct {
	Site      SiteConfig      `koanf:"site" yaml:"site"`
	Build     BuildConfig     `koanf:"build" yaml:"build"`
	Markdown  MarkdownConfig  `koanf:"markdown" yaml:"markdown"`
	Highlight HighlightConfig `koanf:"highlight" yaml:"highlight"`
	Fetch     FetchConfig     `koanf:"fetch" yaml:"fetch"`
	Serve     ServeConfig     `koanf:"serve" yaml:"serve"`
	Logging   LoggingConfig   `koanf:"logging" yaml:"logging"`
}

// SiteConfig holds values visible to every page.
type SiteConfig struct {
	// Globals sit below any _globals.yaml in the content tree.
	Globals map[string]any `koanf:"globals" yaml:"globals,omitempty"`
}

// BuildConfig controls a generation run.
type BuildConfig struct {
	Concurrency int  `koanf:"concurrency" yaml:"concurrency"` // per directory level
	Compress    bool `koanf:"compress" yaml:"compress"`       // write .gz sidecars
	Clean       bool `koanf:"clean" yaml:"clean"`             // remove output before building
}

// MarkdownConfig selects goldmark options.
type MarkdownConfig struct {
	GFM       bool `koanf:"gfm" yaml:"gfm"`
	HardWraps bool `koanf:"hard_wraps" yaml:"hard_wraps"`
	Unsafe    bool `koanf:"unsafe" yaml:"unsafe"` // pass raw HTML through
}

// HighlightConfig configures the external syntax highlighter. The fenced
// block language is appended to Command and the code is written to stdin.
// An empty Command leaves code blocks to goldmark.
type HighlightConfig struct {
	Command []string      `koanf:"command" yaml:"command,omitempty"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// FetchConfig configures remote retrieval for dataURL and favicon.
type FetchConfig struct {
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`
	UserAgent string        `koanf:"user_agent" yaml:"user_agent"`
	// Retries applies to transport failures, 429 and 5xx responses. Zero,
	// the default, fails on the first error.
	Retries      int           `koanf:"retries" yaml:"retries"`
	Backoff      retry.Mode    `koanf:"backoff" yaml:"backoff"`
	RetryInitial time.Duration `koanf:"retry_initial" yaml:"retry_initial"`
	RetryMax     time.Duration `koanf:"retry_max" yaml:"retry_max"`
}

// RetryPolicy builds the backoff policy for remote fetches.
func (f FetchConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(f.Backoff, f.RetryInitial, f.RetryMax, f.Retries)
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Host     string        `koanf:"host" yaml:"host"`
	Port     int           `koanf:"port" yaml:"port"`
	Metrics  bool          `koanf:"metrics" yaml:"metrics"`
	Debounce time.Duration `koanf:"debounce" yaml:"debounce"`
	// RebuildInterval triggers periodic full rebuilds so remote content is
	// refreshed. Zero disables it.
	RebuildInterval time.Duration `koanf:"rebuild_interval" yaml:"rebuild_interval"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `koanf:"level" yaml:"level"`
	Format LogFormat `koanf:"format" yaml:"format"`
}

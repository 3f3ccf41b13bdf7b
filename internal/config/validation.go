package config

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// Validate checks values that defaults cannot repair.
func Validate(cfg *Config) error {
	var problems []string
	if cfg.Build.Concurrency < 0 {
		problems = append(problems, fmt.Sprintf("build.concurrency must not be negative (got %d)", cfg.Build.Concurrency))
	}
	if cfg.Serve.Port < 0 || cfg.Serve.Port > 65535 {
		problems = append(problems, fmt.Sprintf("serve.port out of range (got %d)", cfg.Serve.Port))
	}
	if cfg.Highlight.Timeout < 0 || cfg.Fetch.Timeout < 0 || cfg.Serve.Debounce < 0 || cfg.Serve.RebuildInterval < 0 {
		problems = append(problems, "durations must not be negative")
	}
	if cfg.Fetch.Retries < 0 {
		problems = append(problems, fmt.Sprintf("fetch.retries must not be negative (got %d)", cfg.Fetch.Retries))
	}
	if cfg.Fetch.RetryInitial < 0 || cfg.Fetch.RetryMax < 0 {
		problems = append(problems, "fetch retry delays must not be negative")
	}
	if _, err := retry.ParseMode(string(cfg.Fetch.Backoff)); err != nil {
		problems = append(problems, "fetch.backoff: "+err.Error())
	}
	if len(cfg.Highlight.Command) > 0 && strings.TrimSpace(cfg.Highlight.Command[0]) == "" {
		problems = append(problems, "highlight.command must start with a program")
	}
	if _, err := logLevelNormalizer.Parse(string(cfg.Logging.Level)); err != nil {
		problems = append(problems, "logging.level: "+err.Error())
	}
	if _, err := logFormatNormalizer.Parse(string(cfg.Logging.Format)); err != nil {
		problems = append(problems, "logging.format: "+err.Error())
	}
	if len(problems) == 0 {
		return nil
	}
	return ferrors.ValidationError("invalid configuration: " + strings.Join(problems, "; ")).
		WithContext("problems", problems).
		Build()
}

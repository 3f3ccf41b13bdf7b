package config

import (
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Example is the configuration written by Init.
func Example() map[string]any {
	return map[string]any{
		"site": map[string]any{
			"globals": map[string]any{
				"siteName": "My Site",
			},
		},
		"build": map[string]any{
			"concurrency": 8,
			"compress":    false,
			"clean":       true,
		},
		"markdown": map[string]any{
			"gfm":        true,
			"hard_wraps": false,
			"unsafe":     true,
		},
		"highlight": map[string]any{
			"command": []string{"node", "highlight.js"},
			"timeout": DefaultHighlightTimeout.String(),
		},
		"fetch": map[string]any{
			"timeout":       DefaultFetchTimeout.String(),
			"user_agent":    DefaultUserAgent,
			"retries":       DefaultFetchRetries,
			"backoff":       "linear",
			"retry_initial": DefaultRetryInitial.String(),
			"retry_max":     DefaultRetryMax.String(),
		},
		"serve": map[string]any{
			"host":             DefaultServeHost,
			"port":             DefaultServePort,
			"metrics":          true,
			"debounce":         DefaultDebounce.String(),
			"rebuild_interval": "0s",
		},
		"logging": map[string]any{
			"level":  string(LogLevelInfo),
			"format": string(LogFormatText),
		},
	}
}

// Init writes the example configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").
			WithContext("path", path).
			Build()
	}
	return nil
}

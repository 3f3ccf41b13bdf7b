// Package highlight runs an external syntax highlighter as a short-lived
// subprocess per code block.
//
// Protocol: the configured command is started with the block's language as its
// final argument, the code is written to standard input, and rendered HTML is
// read back from standard output. A non-zero exit yields a render error
// carrying the process's standard error (or standard output when standard
// error is empty).
package highlight

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Command highlights code by invoking an external program.
type Command struct {
	argv    []string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Command.
type Option func(*Command)

// WithLogger sets the logger used for per-block debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Command) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCommand returns a highlighter for argv (program followed by fixed
// arguments). A zero timeout means no limit beyond the caller's context.
func NewCommand(argv []string, timeout time.Duration, opts ...Option) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.ValidationError("highlighter command is empty").Build()
	}
	c := &Command{argv: append([]string(nil), argv...), timeout: timeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Highlight renders code through the subprocess.
func (c *Command) Highlight(ctx context.Context, code, lang string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), c.argv[1:]...), lang)
	cmd := exec.CommandContext(ctx, c.argv[0], args...) //nolint:gosec // command comes from site configuration
	cmd.Stdin = strings.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = strings.TrimSpace(stdout.String())
		}
		c.logger.Debug("Highlighter failed", logfields.Lang(lang), logfields.Since(start), logfields.Error(err))
		msg := "highlighter failed"
		if diag != "" {
			msg += ": " + diag
		}
		return "", errors.WrapError(err, errors.CategoryRender, msg).
			WithContext("lang", lang).
			WithContext("diagnostics", diag).
			Build()
	}
	c.logger.Debug("Highlighted code block", logfields.Lang(lang), logfields.Since(start))
	return stdout.String(), nil
}

// Diagnostics returns the collaborator output recorded on a highlighter error.
func Diagnostics(err error) string {
	if classified, ok := errors.AsClassified(err); ok {
		if diag, ok := classified.Context().GetString("diagnostics"); ok {
			return diag
		}
	}
	return ""
}

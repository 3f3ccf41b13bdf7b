// Package minify compacts stylesheets with esbuild's whitespace minifier.
package minify

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// CSS collapses whitespace and comments in a stylesheet. Identifiers and
// syntax are left alone so the output stays readable in devtools.
func CSS(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: true,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		var msgs []string
		for _, msg := range result.Errors {
			msgs = append(msgs, fmt.Sprintf("%d:%d: %s", lineOf(msg), columnOf(msg), msg.Text))
		}
		return "", errors.RenderError("css minification failed").
			WithContext("diagnostics", strings.Join(msgs, "\n")).
			Build()
	}
	return strings.TrimSpace(string(result.Code)), nil
}

func lineOf(msg api.Message) int {
	if msg.Location == nil {
		return 0
	}
	return msg.Location.Line
}

func columnOf(msg api.Message) int {
	if msg.Location == nil {
		return 0
	}
	return msg.Location.Column
}

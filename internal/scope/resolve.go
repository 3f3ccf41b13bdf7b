package scope

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleMarker starts the heading line used for title discovery.
const TitleMarker = "# "

// Capitalize uppercases the first character of s and leaves the rest as is.
// A Caser is stateful, so one is built per call.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + s[size:]
}

// StripExt removes the final extension from a file name.
func StripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ForFile builds the scope for a content file: globals, then the capitalized
// file name as title, then frontmatter fields. Callers layer local overrides
// such as body or a discovered title with With.
func ForFile(globals *Scope, fileName string, fields map[string]any) *Scope {
	return globals.
		With("title", Capitalize(StripExt(fileName))).
		Merge(fields)
}

// DiscoverTitle returns the text after the first line starting with "# ".
func DiscoverTitle(body string) (string, bool) {
	for _, line := range strings.FieldsFunc(body, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.HasPrefix(line, TitleMarker) {
			return line[len(TitleMarker):], true
		}
	}
	return "", false
}

// FindTitle returns the first "# " heading of body, falling back to the
// capitalized name.
func FindTitle(body, name string) string {
	if title, ok := DiscoverTitle(body); ok {
		return title
	}
	return Capitalize(name)
}

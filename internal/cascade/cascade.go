// Package cascade locates the template and globals that apply to a content
// directory. Both are looked up locally first and then in enclosing
// directories.
package cascade

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Template is a layout file together with the directory it was found in.
// Includes inside the template resolve relative to Dir.
type Template struct {
	Dir  string
	Path string
	Text string
}

// GlobalsFiles are tried in order in each directory.
var GlobalsFiles = []string{"_globals.yaml", "_globals.yml"}

// Cascade resolves templates and globals below a content root.
type Cascade struct {
	root string
}

// New returns a Cascade bounded by root.
func New(root string) *Cascade {
	return &Cascade{root: filepath.Clean(root)}
}

// Root returns the content root.
func (c *Cascade) Root() string { return c.root }

// TemplateName returns the template file name for base, e.g. "_post.html".
func TemplateName(base string) string {
	return "_" + base + ".html"
}

// Singular drops one trailing "s".
func Singular(name string) string {
	return strings.TrimSuffix(name, "s")
}

// Candidates lists the template paths tried for a page named base in dir,
// most specific first.
func (c *Cascade) Candidates(dir, base string) []string {
	dir = filepath.Clean(dir)
	out := []string{filepath.Join(dir, TemplateName(base))}
	for cur := dir; ; {
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		// The immediate parent is always consulted; further ancestors only
		// while they stay inside the content root.
		if cur != dir && !c.contains(parent) {
			break
		}
		out = append(out, filepath.Join(parent, TemplateName(Singular(filepath.Base(cur)))))
		cur = parent
	}
	return out
}

// FindTemplate returns the first existing candidate template for base in
// dir. A missing template is a configuration error.
func (c *Cascade) FindTemplate(dir, base string) (*Template, error) {
	candidates := c.Candidates(dir, base)
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return &Template{Dir: filepath.Dir(path), Path: path, Text: string(data)}, nil
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read template").
				WithContext("path", path).
				Build()
		}
	}
	return nil, ferrors.ConfigError("no template found for "+base).
		WithContext("path", filepath.Join(dir, base)).
		WithContext("candidates", strings.Join(candidates, ", ")).
		Build()
}

// FindGlobals loads the globals mapping for dir, falling back to the parent
// directory. No globals file yields an empty mapping.
func (c *Cascade) FindGlobals(dir string) (map[string]any, error) {
	dir = filepath.Clean(dir)
	for _, d := range []string{dir, filepath.Dir(dir)} {
		for _, name := range GlobalsFiles {
			path := filepath.Join(d, name)
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read globals").
					WithContext("path", path).
					Build()
			}
			return parseGlobals(path, data)
		}
	}
	return map[string]any{}, nil
}

func parseGlobals(path string, data []byte) (map[string]any, error) {
	globals := map[string]any{}
	if err := yaml.Unmarshal(data, &globals); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid globals file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	if globals == nil {
		globals = map[string]any{}
	}
	return globals, nil
}

func (c *Cascade) contains(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

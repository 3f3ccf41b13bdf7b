package generator

import (
	"io/fs"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/functions"
	"git.home.luguber.info/inful/sitegen/internal/scope"
)

// Kind selects the pipeline for an entry.
type Kind string

const (
	KindMarkdown  Kind = "markdown"
	KindHTML      Kind = "html"
	KindAsset     Kind = "asset" // .css and .js, expanded but not converted
	KindCopy      Kind = "copy"
	KindDirectory Kind = "directory"
)

// Kinds lists every entry kind in reporting order.
var Kinds = []Kind{KindMarkdown, KindHTML, KindAsset, KindCopy, KindDirectory}

// Entry is one child of a content directory.
type Entry struct {
	Name   string
	Path   string
	Kind   Kind
	Hidden bool
}

// Slug is the name without its final extension. Directories keep their name.
func (e Entry) Slug() string {
	if e.Kind == KindDirectory {
		return e.Name
	}
	return scope.StripExt(e.Name)
}

// Classify describes a directory entry found in dir.
func Classify(dir string, d fs.DirEntry) Entry {
	e := Entry{
		Name:   d.Name(),
		Path:   filepath.Join(dir, d.Name()),
		Hidden: strings.HasPrefix(d.Name(), functions.HiddenPrefix),
	}
	switch {
	case d.IsDir():
		e.Kind = KindDirectory
	default:
		e.Kind = KindForExt(filepath.Ext(d.Name()))
	}
	return e
}

// KindForExt maps a file extension to its pipeline.
func KindForExt(ext string) Kind {
	switch strings.ToLower(ext) {
	case ".md":
		return KindMarkdown
	case ".html":
		return KindHTML
	case ".css", ".js":
		return KindAsset
	default:
		return KindCopy
	}
}

package functions

import (
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/expand"
	"git.home.luguber.info/inful/sitegen/internal/fetch"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Built-in function names.
const (
	File        expand.Name = "file"
	Markdown    expand.Name = "md"
	CSS         expand.Name = "css"
	Dir         expand.Name = "dir"
	DataURL     expand.Name = "dataURL"
	Favicon     expand.Name = "favicon"
	Conditional expand.Name = "?"
)

// Names lists every built-in in registration order.
var Names = []expand.Name{File, Markdown, CSS, Dir, DataURL, Favicon, Conditional}

// Converter renders Markdown to HTML.
type Converter interface {
	Convert(ctx context.Context, src []byte) (string, error)
}

// Fetcher retrieves remote resources.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Resource, error)
}

// Deps are the collaborators the built-ins need.
type Deps struct {
	Markdown  Converter
	Fetcher   Fetcher
	MinifyCSS func(string) (string, error)
}

// Builtins returns the registry factory passed to expand.New.
func Builtins(deps Deps) func(expand.ExpandFunc) expand.Registry {
	return func(x expand.ExpandFunc) expand.Registry {
		files := &fileFunc{expand: x}
		data := &dataURLFunc{fetcher: deps.Fetcher}
		return expand.Registry{
			File:        files,
			Markdown:    &markdownFunc{expand: x, markdown: deps.Markdown},
			CSS:         &cssFunc{file: files, minify: deps.MinifyCSS},
			Dir:         &dirFunc{expand: x, markdown: deps.Markdown},
			DataURL:     data,
			Favicon:     &faviconFunc{fetcher: deps.Fetcher, data: data},
			Conditional: conditionalFunc{},
		}
	}
}

func readFile(dir, rel string) ([]byte, string, error) {
	path := filepath.Join(dir, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.WrapError(err, errors.CategoryFileSystem, "read include").
			WithContext("path", path).
			Build()
	}
	return data, path, nil
}

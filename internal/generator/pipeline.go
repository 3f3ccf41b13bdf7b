package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/scope"
)

// markdownPage expands the page body, converts it and places it in the
// nearest template. The title is the first "# " heading of the expanded
// body, else the frontmatter title, else the capitalized file name.
func (r *run) markdownPage(ctx context.Context, e Entry, globals *scope.Scope, out string) (string, error) {
	dir := filepath.Dir(e.Path)
	src, err := readSource(e.Path)
	if err != nil {
		return "", err
	}
	fields, body, err := frontmatter.Parse(src)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "invalid frontmatter").
			WithContext("path", e.Path).
			Build()
	}

	sc := scope.ForFile(globals, e.Name, fields)
	expanded, err := r.expander.Expand(ctx, string(body), sc, dir)
	if err != nil {
		return "", withPath(err, e.Path)
	}

	title, ok := scope.DiscoverTitle(expanded)
	if !ok {
		title, _ = sc.String("title")
	}

	tpl, err := r.cascade.FindTemplate(dir, e.Slug())
	if err != nil {
		return "", err
	}
	r.logger.Debug("Resolved template", logfields.Path(e.Path), logfields.Template(tpl.Path))

	html, err := r.markdown.Convert(ctx, []byte(expanded))
	if err != nil {
		return "", withPath(err, e.Path)
	}

	page := sc.With("title", title).With("body", strings.TrimSpace(html))
	doc, err := r.expander.Expand(ctx, tpl.Text, page, tpl.Dir)
	if err != nil {
		return "", withPath(err, tpl.Path)
	}
	return r.writer.WriteDocument(filepath.Join(out, e.Slug()), doc)
}

// htmlPage expands a standalone page. No template is applied.
func (r *run) htmlPage(ctx context.Context, e Entry, globals *scope.Scope, out string) (string, error) {
	doc, err := r.expandFile(ctx, e, globals)
	if err != nil {
		return "", err
	}
	return r.writer.WriteDocument(filepath.Join(out, e.Slug()), doc)
}

// asset expands a stylesheet or script and writes it under its own name.
func (r *run) asset(ctx context.Context, e Entry, globals *scope.Scope, out string) (string, error) {
	text, err := r.expandFile(ctx, e, globals)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(out, e.Name)
	return dst, r.writer.WriteAsset(dst, []byte(text))
}

func (r *run) expandFile(ctx context.Context, e Entry, globals *scope.Scope) (string, error) {
	src, err := readSource(e.Path)
	if err != nil {
		return "", err
	}
	text, err := r.expander.Expand(ctx, string(src), scope.ForFile(globals, e.Name, nil), filepath.Dir(e.Path))
	if err != nil {
		return "", withPath(err, e.Path)
	}
	return text, nil
}

func readSource(path string) ([]byte, error) {
	// #nosec G304 -- path comes from walking the input tree.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content file").
			WithContext("path", path).
			Build()
	}
	return data, nil
}

// withPath attaches the page path to a classified error that lacks one and
// classifies anything else as a render failure.
func withPath(err error, path string) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		if _, has := ce.Context().GetString("page"); has {
			return err
		}
		return ce.WithContext("page", path)
	}
	return ferrors.WrapError(err, ferrors.CategoryRender, "render failed").
		WithContext("page", path).
		Build()
}

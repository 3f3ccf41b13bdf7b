package functions

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/expand"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/scope"
)

type fileFunc struct {
	expand expand.ExpandFunc
}

func (f *fileFunc) Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
	data, _, err := readFile(dir, arg)
	if err != nil {
		return "", err
	}
	out, err := f.expand(ctx, string(data), sc, dir)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

type markdownFunc struct {
	expand   expand.ExpandFunc
	markdown Converter
}

func (f *markdownFunc) Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
	data, path, err := readFile(dir, arg)
	if err != nil {
		return "", err
	}
	fields, body, err := frontmatter.Parse(data)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid frontmatter").
			WithContext("path", path).
			Build()
	}
	body2, err := f.expand(ctx, string(body), sc.Merge(fields), dir)
	if err != nil {
		return "", err
	}
	html, err := f.markdown.Convert(ctx, []byte(body2))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(html), nil
}

type cssFunc struct {
	file   *fileFunc
	minify func(string) (string, error)
}

func (f *cssFunc) Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
	out, err := f.file.Invoke(ctx, arg, dir, sc)
	if err != nil {
		return "", err
	}
	if f.minify == nil {
		return out, nil
	}
	return f.minify(out)
}

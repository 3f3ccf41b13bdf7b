package functions

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/fetch"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/scope"
)

type dataURLFunc struct {
	fetcher Fetcher
}

func (f *dataURLFunc) Invoke(ctx context.Context, arg, _ string, _ *scope.Scope) (string, error) {
	target, err := absoluteURL(arg)
	if err != nil {
		return "", err
	}
	res, err := f.fetcher.Get(ctx, target.String())
	if err != nil {
		return "", err
	}
	return res.DataURL(), nil
}

type faviconFunc struct {
	fetcher Fetcher
	data    *dataURLFunc
}

func (f *faviconFunc) Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
	arg = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(arg), "<"), ">")
	page, err := absoluteURL(arg)
	if err != nil {
		return "", err
	}
	res, err := f.fetcher.Get(ctx, page.String())
	if err != nil {
		return "", err
	}
	base, err := url.Parse(res.URL)
	if err != nil || res.URL == "" {
		base = page
	}
	icon, err := fetch.FindIcon(bytes.NewReader(res.Body), base)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryNetwork, "parse page for icon").
			WithContext("url", page.String()).
			Build()
	}
	inline, err := f.data.Invoke(ctx, icon, dir, sc)
	if err != nil {
		return "", err
	}
	return "![" + scope.Capitalize(page.Hostname()) + "](" + inline + ")", nil
}

func absoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, errors.NetworkError("expected an absolute URL").
			WithContext("url", raw).
			WithCause(err).
			Build()
	}
	return u, nil
}

package functions

import (
	"cmp"
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/expand"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/scope"
)

// HiddenPrefix marks partials and templates that never produce output.
const HiddenPrefix = "_"

var datedLabel = regexp.MustCompile(`\d{4}`)

// ListingEntry is one link in a directory listing.
type ListingEntry struct {
	Label string
	Link  string
}

// IsDated reports whether the label carries a four digit run (a year).
func (e ListingEntry) IsDated() bool {
	return datedLabel.MatchString(e.Label)
}

// SortListing orders dated entries newest first, then undated entries
// alphabetically.
func SortListing(entries []ListingEntry) {
	slices.SortStableFunc(entries, func(a, b ListingEntry) int {
		ad, bd := a.IsDated(), b.IsDated()
		switch {
		case ad && !bd:
			return -1
		case !ad && bd:
			return 1
		case ad && bd:
			return cmp.Compare(b.Label, a.Label)
		default:
			return cmp.Compare(a.Label, b.Label)
		}
	})
}

type dirFunc struct {
	expand   expand.ExpandFunc
	markdown Converter
}

func (f *dirFunc) Invoke(ctx context.Context, arg, dir string, sc *scope.Scope) (string, error) {
	listing, err := List(dir, arg)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(listing))
	for _, e := range listing {
		lines = append(lines, "- ["+e.Label+"]("+e.Link+")")
	}
	md, err := f.expand(ctx, strings.Join(lines, "\n"), sc, dir)
	if err != nil {
		return "", err
	}
	html, err := f.markdown.Convert(ctx, []byte(md))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(html), nil
}

// List reads dir/rel and returns its sorted listing. Hidden entries, dot
// files and index pages are skipped. Markdown entries contribute their
// frontmatter date and author as a label prefix.
func List(dir, rel string) ([]ListingEntry, error) {
	target := filepath.Join(dir, rel)
	dirents, err := os.ReadDir(target)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read listing directory").
			WithContext("path", target).
			Build()
	}

	prefix := path.Clean(filepath.ToSlash(rel))
	entries := make([]ListingEntry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, HiddenPrefix) || strings.HasPrefix(name, ".") {
			continue
		}
		slug := name
		if !d.IsDir() {
			slug = scope.StripExt(name)
		}
		if slug == "index" {
			continue
		}

		label := slug
		if !d.IsDir() && filepath.Ext(name) == ".md" {
			if p := labelPrefix(filepath.Join(target, name)); p != "" {
				label = p + " " + slug
			}
		}

		link := slug + "/"
		if prefix != "." {
			link = prefix + "/" + slug + "/"
		}
		entries = append(entries, ListingEntry{Label: label, Link: link})
	}
	SortListing(entries)
	return entries, nil
}

// labelPrefix returns "date author" from a Markdown file's frontmatter.
// Unreadable files simply get no prefix.
func labelPrefix(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	fields, _, err := frontmatter.Parse(data)
	if err != nil {
		return ""
	}
	var parts []string
	for _, key := range []string{"date", "author"} {
		if v := strings.TrimSpace(scope.Stringify(fields[key])); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

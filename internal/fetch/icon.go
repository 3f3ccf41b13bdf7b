package fetch

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// FindIcon returns the absolute URL of the first <link> whose rel contains
// "icon", resolved against base. Attribute order does not matter. When the
// page declares no icon the conventional /favicon.ico is returned.
func FindIcon(r io.Reader, base *url.URL) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return resolve(base, "/favicon.ico")
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "link" {
				continue
			}
			var rel, href string
			for _, attr := range tok.Attr {
				switch strings.ToLower(attr.Key) {
				case "rel":
					rel = strings.ToLower(attr.Val)
				case "href":
					href = strings.TrimSpace(attr.Val)
				}
			}
			if href != "" && hasIconRel(rel) {
				return resolve(base, href)
			}
		}
	}
}

func hasIconRel(rel string) bool {
	for _, token := range strings.Fields(rel) {
		if token == "icon" {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

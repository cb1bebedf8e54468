package offline

import (
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html/charset"
)

var assetQueries = []struct {
	expr string
	attr string
}{
	{`//link[@href]`, "href"},
	{`//script[@src]`, "src"},
	{`//img[@src]`, "src"},
}

// DiscoverAssets lists the same-origin assets referenced by the root document
// as paths relative to base, starting with "./". Fragments are dropped and
// duplicates removed.
func DiscoverAssets(r io.Reader, contentType string, base *url.URL) ([]string, error) {
	reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, err
	}
	doc, err := htmlquery.Parse(reader)
	if err != nil {
		return nil, err
	}

	dir := base.Path
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir) + "/"
	}

	seen := map[string]bool{"./": true}
	assets := []string{"./"}
	for _, q := range assetQueries {
		for _, n := range htmlquery.Find(doc, q.expr) {
			rel, ok := relativeAsset(htmlquery.SelectAttr(n, q.attr), base, dir)
			if !ok || seen[rel] {
				continue
			}
			seen[rel] = true
			assets = append(assets, rel)
		}
	}
	return assets, nil
}

func relativeAsset(ref string, base *url.URL, dir string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return "", false
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(parsed)
	if u.Scheme != base.Scheme || u.Host != base.Host || !strings.HasPrefix(u.Path, dir) {
		return "", false
	}
	rel := "./" + strings.TrimPrefix(u.Path, dir)
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	return rel, true
}

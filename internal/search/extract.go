// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// redirectMarker identifies DuckDuckGo's click-tracking wrapper. The real
// destination is the percent-encoded uddg parameter.
const redirectMarker = "/l/?uddg="

// adPath is the click-tracking endpoint used by sponsored results.
const adPath = "/y.js"

// Class names for the title anchor and the snippet element. The first of each
// pair is the html.duckduckgo.com layout, the second is lite.duckduckgo.com.
// Sponsored blocks carry an ad class and are skipped whole.
var (
	titleClasses   = []string{"result__a", "result-link"}
	snippetClasses = []string{"result__snippet", "result-snippet"}
	adClasses      = []string{"result--ad", "result-sponsored"}
)

// ExtractResults parses a search results page and returns one result per
// title anchor that is followed by a snippet element, in document order.
//
// A title anchor that is followed by another title anchor before any snippet
// is dropped, as are sponsored blocks and results with an empty title or an
// href that does not resolve to an absolute http(s) URL. No deduplication
// happens here.
func ExtractResults(page string) ([]types.SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	var (
		results []types.SearchResult
		pending *types.SearchResult
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, adClasses):
				pending = nil
				return
			case n.Data == "a" && hasClass(n, titleClasses):
				pending = nil
				href, ok := resolveHref(attr(n, "href"))
				title := textContent(n)
				if ok && title != "" {
					pending = &types.SearchResult{Title: title, URL: href}
				}
				// Title text is consumed; do not descend.
				return
			case hasClass(n, snippetClasses):
				if pending != nil {
					pending.Snippet = textContent(n)
					results = append(results, *pending)
					pending = nil
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results, nil
}

// resolveHref unwraps redirect links and makes protocol-relative URLs
// absolute. It reports false when the href is empty, cannot be decoded, is
// not an absolute http(s) URL, or points at the ad click tracker. The
// wrapped target is percent-decoded only; a literal '+' stays a '+'.
func resolveHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	if idx := strings.Index(href, redirectMarker); idx >= 0 {
		encoded := href[idx+len(redirectMarker):]
		if amp := strings.IndexByte(encoded, '&'); amp >= 0 {
			encoded = encoded[:amp]
		}
		decoded, err := url.PathUnescape(encoded)
		if err != nil || decoded == "" {
			return "", false
		}
		href = decoded
	}

	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	if u.Path == adPath && strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		return "", false
	}
	return href, true
}

// hasClass reports whether n carries any of the given class names.
func hasClass(n *html.Node, names []string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		for _, name := range names {
			if c == name {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text beneath n and collapses runs of
// whitespace, so inline markup such as <b> does not split words.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

package theme

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Logo candidates in priority order. An earlier rule beats a later one even
// when the later rule's element appears first in the document. A match with
// an empty src falls through to the next rule.
var logoSelectors = []cascadia.Selector{
	cascadia.MustCompile(`header img[src*="logo"]`),
	cascadia.MustCompile(`nav img[src*="logo"]`),
	cascadia.MustCompile(`[class*="logo"] img`),
	cascadia.MustCompile(`header img`),
	cascadia.MustCompile(`nav img`),
	cascadia.MustCompile(`a > img:first-child`),
}

var ogImageSelector = cascadia.MustCompile(`meta[property="og:image"]`)

var faviconSelectors = []cascadia.Selector{
	cascadia.MustCompile(`link[rel="icon"]`),
	cascadia.MustCompile(`link[rel="shortcut icon"]`),
	cascadia.MustCompile(`link[rel="apple-touch-icon"]`),
}

var (
	headerSelector = cascadia.MustCompile(`header`)
	footerSelector = cascadia.MustCompile(`footer`)
)

// Chrome is the header/footer markup captured from a site for visual reuse
// in the portal shell. Both fragments are sanitized.
type Chrome struct {
	HeaderHTML string
	FooterHTML string
}

// ExtractLogo returns the logo image URL found in the document, trying the
// prioritized selector list and then the og:image meta tag. Empty when
// nothing matches.
func ExtractLogo(doc *html.Node) string {
	if doc == nil {
		return ""
	}
	for _, sel := range logoSelectors {
		if n := sel.MatchFirst(doc); n != nil {
			if src := strings.TrimSpace(getAttr(n, "src")); src != "" {
				return src
			}
		}
	}
	if n := ogImageSelector.MatchFirst(doc); n != nil {
		if content := strings.TrimSpace(getAttr(n, "content")); content != "" {
			return content
		}
	}
	return ""
}

// ExtractFavicon returns the favicon URL from the first matching icon link,
// or empty when the document declares none.
func ExtractFavicon(doc *html.Node) string {
	if doc == nil {
		return ""
	}
	for _, sel := range faviconSelectors {
		if n := sel.MatchFirst(doc); n != nil {
			if href := strings.TrimSpace(getAttr(n, "href")); href != "" {
				return href
			}
		}
	}
	return ""
}

// ExtractChrome captures the first header and first footer element in
// document order, each passed through Sanitize. Absent elements yield
// empty strings.
func ExtractChrome(doc *html.Node) Chrome {
	var ch Chrome
	if doc == nil {
		return ch
	}
	if n := headerSelector.MatchFirst(doc); n != nil {
		ch.HeaderHTML = Sanitize(renderNode(n))
	}
	if n := footerSelector.MatchFirst(doc); n != nil {
		ch.FooterHTML = Sanitize(renderNode(n))
	}
	return ch
}

// parseDocument parses HTML text tolerantly. The parser accepts any input,
// so a nil result only ever signals a broken reader, which a string reader
// cannot produce.
func parseDocument(htmlText string) *html.Node {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}
	return doc
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func getAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

package theme

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitize strips script execution vectors from an HTML fragment while
// preserving its visual structure: script, noscript and iframe elements are
// dropped with their contents, on* handler attributes are removed, and
// javascript: hrefs are rewritten to "#". Every other tag, attribute and
// text node passes through. The fragment is re-parsed with a tolerant
// parser, so unbalanced markup is repaired rather than rejected. This is a
// best-effort filter for reusing site chrome, not a security boundary for
// arbitrary display contexts.
func Sanitize(fragment string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, n := range nodes {
		if n.Type == html.ElementNode && isStrippedElement(n) {
			continue
		}
		sanitizeNode(n)
		_ = html.Render(&b, n)
	}
	return b.String()
}

func sanitizeNode(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && isStrippedElement(c) {
			n.RemoveChild(c)
			continue
		}
		sanitizeNode(c)
	}
	if n.Type != html.ElementNode || len(n.Attr) == 0 {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if key == "href" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			a.Val = "#"
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func isStrippedElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Noscript, atom.Iframe:
		return true
	}
	return false
}

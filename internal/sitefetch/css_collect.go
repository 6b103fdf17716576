package sitefetch

import (
	"context"
	"strings"

	cssast "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const maxImportDepth = 8

// cssCollector accumulates stylesheet texts for one page fetch. External
// fetches share one budget and one visited set across links and imports.
type cssCollector struct {
	f       *Fetcher
	ctx     context.Context
	visited map[string]struct{}
	budget  int
	texts   []string
	urls    []string
}

// collectCSS walks the document for <style> bodies and stylesheet links,
// in document order.
func (f *Fetcher) collectCSS(ctx context.Context, doc *html.Node, base string) ([]string, []string) {
	c := &cssCollector{
		f:       f,
		ctx:     ctx,
		visited: map[string]struct{}{},
		budget:  f.maxCSSFiles,
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case strings.EqualFold(n.Data, "style"):
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					if text := c.flatten(n.FirstChild.Data, base, 0); strings.TrimSpace(text) != "" {
						c.texts = append(c.texts, text)
					}
				}
			case strings.EqualFold(n.Data, "link"):
				rel := strings.ToLower(strings.TrimSpace(attrVal(n, "rel")))
				if !strings.Contains(rel, "stylesheet") {
					break
				}
				typ := strings.ToLower(strings.TrimSpace(attrVal(n, "type")))
				if typ != "" && typ != "text/css" {
					break
				}
				if href := strings.TrimSpace(attrVal(n, "href")); href != "" {
					c.addExternal(href, base)
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)

	return c.texts, c.urls
}

// addExternal fetches one linked stylesheet, subject to the budget and the
// visited set, and appends its flattened text.
func (c *cssCollector) addExternal(href, base string) {
	abs := resolveAbsURL(base, href)
	if abs == "" {
		return
	}
	if _, seen := c.visited[abs]; seen {
		return
	}
	c.visited[abs] = struct{}{}
	if c.budget <= 0 {
		return
	}
	c.budget--

	body, ok := c.f.fetchText(c.ctx, abs, "text/css")
	if !ok {
		return
	}
	text := c.flatten(string(body), abs, 0)
	if strings.TrimSpace(text) == "" {
		return
	}
	c.texts = append(c.texts, text)
	c.urls = append(c.urls, abs)
}

// flatten rewrites stylesheet text for collection: @import chains are
// pulled in as their own entries, print-only @media blocks are dropped,
// everything else passes through. Text douceur cannot parse is returned
// unchanged; the color miners scan raw text anyway.
func (c *cssCollector) flatten(text, base string, depth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || depth >= maxImportDepth {
		return trimmed
	}
	sheet, err := parser.Parse(trimmed)
	if err != nil {
		c.f.logger.Debug("unparseable stylesheet kept raw",
			zap.String("base", base), zap.Error(err))
		return trimmed
	}

	var b strings.Builder
	for _, rule := range sheet.Rules {
		if rule == nil {
			continue
		}
		if rule.Kind == cssast.AtRule {
			switch strings.ToLower(strings.TrimSpace(rule.Name)) {
			case "@import":
				c.addImport(rule.Prelude, base, depth)
				continue
			case "@media":
				if !screenMedia(rule.Prelude) {
					continue
				}
			}
		}
		b.WriteString(rule.String())
		b.WriteString("\n")
	}
	return b.String()
}

// addImport resolves and fetches one @import target. The imported sheet
// becomes its own snapshot entry, appended before the importing sheet the
// way the cascade orders it.
func (c *cssCollector) addImport(prelude, base string, depth int) {
	target, media := importTarget(prelude)
	if target == "" {
		return
	}
	if media != "" && !screenMedia(media) {
		return
	}
	abs := resolveAbsURL(base, target)
	if abs == "" {
		abs = target
	}
	if _, seen := c.visited[abs]; seen {
		return
	}
	c.visited[abs] = struct{}{}
	if c.budget <= 0 {
		return
	}
	c.budget--

	body, ok := c.f.fetchText(c.ctx, abs, "text/css")
	if !ok {
		return
	}
	text := c.flatten(string(body), abs, depth+1)
	if strings.TrimSpace(text) == "" {
		return
	}
	c.texts = append(c.texts, text)
	c.urls = append(c.urls, abs)
}

// importTarget splits an @import prelude into the target URL and any
// trailing media query. Handles url(...), quoted and bare forms.
func importTarget(prelude string) (string, string) {
	s := strings.TrimSpace(prelude)
	if s == "" {
		return "", ""
	}
	if strings.HasPrefix(strings.ToLower(s), "url(") {
		end := strings.Index(s, ")")
		if end == -1 {
			return "", ""
		}
		target := trimCSSString(strings.TrimSpace(s[4:end]))
		media := strings.TrimSpace(s[end+1:])
		return target, media
	}
	if (s[0] == '"' || s[0] == '\'') && len(s) > 1 {
		if idx := strings.IndexByte(s[1:], s[0]); idx != -1 {
			return s[1 : idx+1], strings.TrimSpace(s[idx+2:])
		}
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	target := trimCSSString(fields[0])
	media := strings.TrimSpace(strings.TrimPrefix(s, fields[0]))
	return target, media
}

func trimCSSString(v string) string {
	vv := strings.TrimSpace(v)
	if len(vv) >= 2 {
		if (vv[0] == '"' && vv[len(vv)-1] == '"') || (vv[0] == '\'' && vv[len(vv)-1] == '\'') {
			return vv[1 : len(vv)-1]
		}
	}
	return vv
}

// screenMedia reports whether a media query prelude applies to screen
// rendering. Feature-only queries count as screen; width and color-scheme
// features are not evaluated, so responsive blocks stay collectable.
func screenMedia(prelude string) bool {
	if strings.TrimSpace(prelude) == "" {
		return true
	}
	for _, raw := range strings.Split(prelude, ",") {
		query := strings.ToLower(strings.TrimSpace(raw))
		if query == "" {
			continue
		}
		negated := false
		if strings.HasPrefix(query, "not ") {
			negated = true
			query = strings.TrimSpace(strings.TrimPrefix(query, "not "))
		}
		query = strings.TrimSpace(strings.TrimPrefix(query, "only "))

		mediaType := ""
		if fields := strings.Fields(query); len(fields) > 0 && !strings.HasPrefix(fields[0], "(") {
			mediaType = fields[0]
		}

		applies := false
		switch mediaType {
		case "", "all", "screen":
			applies = true
		}
		if negated {
			applies = !applies
		}
		if applies {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

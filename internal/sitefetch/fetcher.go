// Package sitefetch retrieves the raw material theme extraction works on:
// a page's HTML plus the text of every reachable stylesheet.
package sitefetch

import (
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	// FetchedViaStatic marks a snapshot built from a plain HTTP fetch.
	FetchedViaStatic = "static"
	// FetchedViaBrowser marks a snapshot built by the JS renderer.
	FetchedViaBrowser = "browser"

	defaultTimeout     = 20 * time.Second
	defaultMaxCSSFiles = 10
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// A page whose body text is this short while loading this many scripts
	// is almost certainly a client-rendered shell.
	scriptShellMinScripts = 4
	scriptShellMaxText    = 200
)

// Config carries the fetcher dependencies. Zero values are defaulted by New.
type Config struct {
	Logger      *zap.Logger
	Client      *http.Client
	UserAgent   string
	Timeout     time.Duration
	MaxCSSFiles int
	Renderer    *Renderer
}

// Fetcher downloads pages and their stylesheets. Safe for concurrent use.
type Fetcher struct {
	logger      *zap.Logger
	client      *http.Client
	userAgent   string
	maxCSSFiles int
	renderer    *Renderer
}

// Snapshot is everything fetched for one page: the HTML document, the text
// of each collected stylesheet (inline, linked and imported), and the
// resolved URLs of the external ones.
type Snapshot struct {
	URL        string
	HTML       string
	CSSTexts   []string
	CSSURLs    []string
	FetchedVia string
}

// Options adjusts a single Fetch call.
type Options struct {
	// RenderJS forces the browser renderer for this fetch. Without it the
	// renderer is still used as a fallback when the static fetch returns a
	// script-shell page.
	RenderJS bool
}

// New builds a Fetcher, filling unset Config fields with defaults.
func New(cfg Config) *Fetcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxCSSFiles <= 0 {
		cfg.MaxCSSFiles = defaultMaxCSSFiles
	}
	return &Fetcher{
		logger:      cfg.Logger,
		client:      cfg.Client,
		userAgent:   cfg.UserAgent,
		maxCSSFiles: cfg.MaxCSSFiles,
		renderer:    cfg.Renderer,
	}
}

// Fetch downloads the page at rawURL and collects its stylesheets.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*Snapshot, error) {
	pageURL, err := NormalizePageURL(rawURL)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{URL: pageURL, FetchedVia: FetchedViaStatic}

	if opts.RenderJS && f.renderer != nil {
		htmlText, finalURL, err := f.renderer.Render(ctx, pageURL, f.userAgent)
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", pageURL, err)
		}
		snap.HTML = htmlText
		snap.URL = finalURL
		snap.FetchedVia = FetchedViaBrowser
	} else {
		htmlText, finalURL, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		snap.HTML = htmlText
		snap.URL = finalURL

		// Client-rendered shells carry their styling in scripts; retry in
		// the browser when one is available.
		if f.renderer != nil && looksLikeScriptShell(htmlText) {
			f.logger.Info("static fetch returned a script shell, rendering in browser",
				zap.String("url", finalURL))
			if rendered, renderedURL, err := f.renderer.Render(ctx, finalURL, f.userAgent); err == nil {
				snap.HTML = rendered
				snap.URL = renderedURL
				snap.FetchedVia = FetchedViaBrowser
			} else {
				f.logger.Warn("browser render failed, keeping static page",
					zap.String("url", finalURL), zap.Error(err))
			}
		}
	}

	doc, err := html.Parse(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", snap.URL, err)
	}
	texts, urls := f.collectCSS(ctx, doc, snap.URL)
	snap.CSSTexts = texts
	snap.CSSURLs = urls

	f.logger.Info("page fetched",
		zap.String("url", snap.URL),
		zap.String("via", snap.FetchedVia),
		zap.Int("css_texts", len(snap.CSSTexts)),
		zap.Int("css_urls", len(snap.CSSURLs)),
	)
	return snap, nil
}

// NormalizePageURL validates a target URL, defaulting a missing scheme
// to https.
func NormalizePageURL(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return u.String(), nil
}

// fetchPage downloads the page HTML, following redirects. Returns the body
// and the final URL.
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request for %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetch %q: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return "", "", fmt.Errorf("read %q: %w", pageURL, err)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return string(body), finalURL, nil
}

// fetchText downloads a subresource as text, tolerating servers that send
// pre-compressed bodies.
func (f *Fetcher) fetchText(ctx context.Context, absURL, accept string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept == "" {
		accept = "text/*"
	}
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("subresource fetch failed", zap.String("url", absURL), zap.Error(err))
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.logger.Debug("subresource fetch failed",
			zap.String("url", absURL), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	body, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return nil, false
	}
	return body, true
}

// decodeBody unwraps a Content-Encoding the transport did not handle.
func decodeBody(resp *http.Response) io.Reader {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		if gr, err := gzip.NewReader(resp.Body); err == nil {
			return gr
		}
	case "deflate":
		if zr, err := zlib.NewReader(resp.Body); err == nil {
			return zr
		}
		return flate.NewReader(resp.Body)
	}
	return resp.Body
}

// looksLikeScriptShell reports whether the document is a client-rendered
// shell: lots of scripts, almost no body text.
func looksLikeScriptShell(htmlText string) bool {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return false
	}
	scripts := 0
	textLen := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if strings.EqualFold(n.Data, "script") {
				scripts++
				return
			}
			if strings.EqualFold(n.Data, "style") || strings.EqualFold(n.Data, "noscript") {
				return
			}
		case html.TextNode:
			textLen += len(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return scripts >= scriptShellMinScripts && textLen < scriptShellMaxText
}

func resolveAbsURL(base, href string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}
	hu, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return bu.ResolveReference(hu).String()
}

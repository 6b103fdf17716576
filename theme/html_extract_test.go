package theme

import (
	"strings"
	"testing"
)

func TestExtractLogo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "header_logo_src",
			html:     `<header><img src="/decor.png"><img src="/img/logo.png"></header>`,
			expected: "/img/logo.png",
		},
		{
			name:     "priority_beats_document_order",
			html:     `<body><a href="/"><img src="/banner.png"></a><header><img src="/img/logo.png"></header></body>`,
			expected: "/img/logo.png",
		},
		{
			name:     "nav_logo_src",
			html:     `<nav><img src="/assets/logo.svg"></nav>`,
			expected: "/assets/logo.svg",
		},
		{
			name:     "logo_class_container",
			html:     `<div class="site-logo"><img src="/brand.svg"></div>`,
			expected: "/brand.svg",
		},
		{
			name:     "any_header_img",
			html:     `<header><img src="/plain.png"></header>`,
			expected: "/plain.png",
		},
		{
			name:     "anchor_first_child_img",
			html:     `<a href="/"><img src="/home.png"><span>Home</span></a>`,
			expected: "/home.png",
		},
		{
			name:     "og_image_fallback",
			html:     `<head><meta property="og:image" content="https://example.com/og.png"></head><body><p>text</p></body>`,
			expected: "https://example.com/og.png",
		},
		{
			name:     "empty_src_falls_through",
			html:     `<header><img src=""></header><nav><img src="/nav.png"></nav>`,
			expected: "/nav.png",
		},
		{
			name:     "no_logo",
			html:     `<body><p>just text</p></body>`,
			expected: "",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractLogo(parseDocument(tc.html)); got != tc.expected {
				t.Fatalf("ExtractLogo(%q) = %q, expected %q", tc.html, got, tc.expected)
			}
		})
	}
}

func TestExtractFavicon(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "rel_icon",
			html:     `<head><link rel="icon" href="/favicon.ico"></head>`,
			expected: "/favicon.ico",
		},
		{
			name:     "rel_shortcut_icon",
			html:     `<head><link rel="shortcut icon" href="/short.ico"></head>`,
			expected: "/short.ico",
		},
		{
			name:     "rel_apple_touch",
			html:     `<head><link rel="apple-touch-icon" href="/apple.png"></head>`,
			expected: "/apple.png",
		},
		{
			name:     "icon_beats_later_apple_touch",
			html:     `<head><link rel="apple-touch-icon" href="/apple.png"><link rel="icon" href="/fav.ico"></head>`,
			expected: "/fav.ico",
		},
		{
			name:     "empty_href_falls_through",
			html:     `<head><link rel="icon" href=""><link rel="shortcut icon" href="/s.ico"></head>`,
			expected: "/s.ico",
		},
		{
			name:     "no_icon_links",
			html:     `<head><link rel="stylesheet" href="/site.css"></head>`,
			expected: "",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractFavicon(parseDocument(tc.html)); got != tc.expected {
				t.Fatalf("ExtractFavicon(%q) = %q, expected %q", tc.html, got, tc.expected)
			}
		})
	}
}

func TestExtractChrome(t *testing.T) {
	t.Parallel()
	doc := parseDocument(`<body>
<header class="hd"><script>track()</script><p>Brand</p></header>
<main>content</main>
<footer><p>Contact us</p></footer>
</body>`)
	ch := ExtractChrome(doc)
	if !strings.Contains(ch.HeaderHTML, `<header class="hd">`) || !strings.Contains(ch.HeaderHTML, "<p>Brand</p>") {
		t.Fatalf("HeaderHTML = %q, expected sanitized header markup", ch.HeaderHTML)
	}
	if strings.Contains(ch.HeaderHTML, "script") {
		t.Fatalf("HeaderHTML = %q, expected script removed", ch.HeaderHTML)
	}
	if !strings.Contains(ch.FooterHTML, "<p>Contact us</p>") {
		t.Fatalf("FooterHTML = %q, expected footer markup", ch.FooterHTML)
	}
}

func TestExtractChromeAbsent(t *testing.T) {
	t.Parallel()
	ch := ExtractChrome(parseDocument(`<body><main>content</main></body>`))
	if ch.HeaderHTML != "" || ch.FooterHTML != "" {
		t.Fatalf("ExtractChrome without chrome = %+v, expected empty fields", ch)
	}
}

func TestExtractorsNilDocument(t *testing.T) {
	t.Parallel()
	if got := ExtractLogo(nil); got != "" {
		t.Fatalf("ExtractLogo(nil) = %q, expected empty", got)
	}
	if got := ExtractFavicon(nil); got != "" {
		t.Fatalf("ExtractFavicon(nil) = %q, expected empty", got)
	}
	if ch := ExtractChrome(nil); ch.HeaderHTML != "" || ch.FooterHTML != "" {
		t.Fatalf("ExtractChrome(nil) = %+v, expected empty fields", ch)
	}
}

// Package theme derives a portal color/typography/logo theme from the raw
// HTML and CSS of an arbitrary website. Extraction is a pure function of
// its inputs: it performs no network access, keeps no state between calls,
// and never fails. Missing or unparseable signals degrade to fixed
// fallbacks, so every call returns a complete, well-formed Theme.
package theme

import (
	"net/url"
	"strings"
)

// Fallback values used when extraction finds no usable signal.
const (
	FallbackPrimary    = "#0ea5e9"
	FallbackSecondary  = "#10b981"
	FallbackBackground = "#ffffff"
	FallbackFontFamily = "system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif"
)

// Palette constants keyed off the light/dark classification.
const (
	darkText          = "#ffffff"
	lightText         = "#1f2937"
	darkTextSecondary = "#a1a1aa"
	lightTextSecond   = "#6b7280"
	darkBorder        = "#2a2a3a"
	lightBorder       = "#e5e7eb"
)

// Theme is the derived color/typography/logo record for one site. Color
// fields always hold normalized 6-digit lowercase hex. A Theme is built
// once per extraction and not mutated afterwards; callers copy and edit
// fields for manual overrides.
type Theme struct {
	PrimaryColor       string   `json:"primaryColor"`
	SecondaryColor     string   `json:"secondaryColor"`
	BackgroundColor    string   `json:"backgroundColor"`
	SurfaceColor       string   `json:"surfaceColor"`
	ElevatedColor      string   `json:"elevatedColor"`
	TextColor          string   `json:"textColor"`
	TextSecondaryColor string   `json:"textSecondaryColor"`
	BorderColor        string   `json:"borderColor"`
	FontFamily         string   `json:"fontFamily"`
	LogoURL            string   `json:"logoUrl"`
	FaviconURL         string   `json:"faviconUrl"`
	IsDark             bool     `json:"isDark"`
	HeaderHTML         string   `json:"headerHtml,omitempty"`
	FooterHTML         string   `json:"footerHtml,omitempty"`
	SiteCSSURLs        []string `json:"siteCssUrls,omitempty"`
}

// Extract builds a Theme from one HTML document and any number of CSS text
// blobs. Colors and typography are mined from the concatenated CSS; logo,
// favicon and chrome come from the HTML. Both inputs may be empty,
// malformed or hostile; the result is always complete.
func Extract(htmlText string, cssTexts []string) Theme {
	css := strings.Join(cssTexts, "\n")

	mined := MineColors(css)
	primary := FallbackPrimary
	secondary := FallbackSecondary
	if len(mined) > 0 {
		primary = mined[0]
	}
	if len(mined) > 1 {
		secondary = mined[1]
	}

	background := ExtractBackgroundColor(css)
	if background == "" {
		background = FallbackBackground
	}

	font := ExtractFontFamily(css)
	if font == "" {
		font = FallbackFontFamily
	}

	doc := parseDocument(htmlText)
	chrome := ExtractChrome(doc)

	t := Theme{
		PrimaryColor:   primary,
		SecondaryColor: secondary,
		FontFamily:     font,
		LogoURL:        ExtractLogo(doc),
		FaviconURL:     ExtractFavicon(doc),
		HeaderHTML:     chrome.HeaderHTML,
		FooterHTML:     chrome.FooterHTML,
	}
	t.setBackground(background)
	return t
}

// WithBackground returns a copy of the theme with the background replaced
// and every derived field (dark flag, surfaces, text and border colors)
// recomputed. Used when a manual override changes the background.
func (t Theme) WithBackground(hex string) Theme {
	t.setBackground(hex)
	return t
}

// ResolveAssetURLs returns a copy of the theme with relative logo and
// favicon references resolved against the page URL they were extracted
// from, so the theme renders correctly from any origin. Empty or
// unparseable references are kept as-is.
func (t Theme) ResolveAssetURLs(pageURL string) Theme {
	base, err := url.Parse(pageURL)
	if err != nil {
		return t
	}
	resolve := func(ref string) string {
		if ref == "" {
			return ""
		}
		u, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(u).String()
	}
	t.LogoURL = resolve(t.LogoURL)
	t.FaviconURL = resolve(t.FaviconURL)
	return t
}

func (t *Theme) setBackground(background string) {
	t.BackgroundColor = background
	t.IsDark = Luminance(background) < 0.5
	if t.IsDark {
		t.SurfaceColor = AdjustLightness(background, 0.05)
		t.ElevatedColor = AdjustLightness(background, 0.08)
		t.TextColor = darkText
		t.TextSecondaryColor = darkTextSecondary
		t.BorderColor = darkBorder
	} else {
		t.SurfaceColor = AdjustLightness(background, -0.03)
		t.ElevatedColor = AdjustLightness(background, -0.05)
		t.TextColor = lightText
		t.TextSecondaryColor = lightTextSecond
		t.BorderColor = lightBorder
	}
}

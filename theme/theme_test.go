package theme

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestExtractEmptyInputFallsBack(t *testing.T) {
	t.Parallel()
	got := Extract("", nil)
	expected := Theme{
		PrimaryColor:       "#0ea5e9",
		SecondaryColor:     "#10b981",
		BackgroundColor:    "#ffffff",
		SurfaceColor:       "#f7f7f7",
		ElevatedColor:      "#f2f2f2",
		TextColor:          "#1f2937",
		TextSecondaryColor: "#6b7280",
		BorderColor:        "#e5e7eb",
		FontFamily:         FallbackFontFamily,
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("Extract(\"\", nil) = %+v, expected %+v", got, expected)
	}
}

func TestExtractDarkSite(t *testing.T) {
	t.Parallel()
	css := []string{`body { background: #0a0a0f; color: #eee } .btn { background: #e91e63 }`}
	got := Extract("", css)
	if !got.IsDark {
		t.Fatalf("IsDark = false for background %q, expected true", got.BackgroundColor)
	}
	if got.BackgroundColor != "#0a0a0f" {
		t.Fatalf("BackgroundColor = %q, expected #0a0a0f", got.BackgroundColor)
	}
	if got.PrimaryColor != "#e91e63" {
		t.Fatalf("PrimaryColor = %q, expected #e91e63", got.PrimaryColor)
	}
	if got.SecondaryColor != "#10b981" {
		t.Fatalf("SecondaryColor = %q, expected fallback #10b981", got.SecondaryColor)
	}
	if got.SurfaceColor != "#17171c" || got.ElevatedColor != "#1e1e23" {
		t.Fatalf("surface/elevated = %q/%q, expected #17171c/#1e1e23", got.SurfaceColor, got.ElevatedColor)
	}
	if got.TextColor != "#ffffff" || got.TextSecondaryColor != "#a1a1aa" || got.BorderColor != "#2a2a3a" {
		t.Fatalf("dark palette = %q/%q/%q, expected #ffffff/#a1a1aa/#2a2a3a",
			got.TextColor, got.TextSecondaryColor, got.BorderColor)
	}
}

func TestExtractFullSite(t *testing.T) {
	t.Parallel()
	htmlText := `<!DOCTYPE html>
<html>
<head>
<meta property="og:image" content="https://example.com/og.png">
<link rel="icon" href="/favicon.ico">
<title>Example</title>
</head>
<body>
<header><a href="/"><img src="/static/logo.png" alt="Example"></a></header>
<main><p>Welcome</p></main>
<footer><p>Contact us</p></footer>
</body>
</html>`
	cssTexts := []string{
		`:root { --brand: #6d28d9 } body { background: #ffffff; font-family: "Inter", sans-serif }`,
		`a { color: #6d28d9 } .btn { background: #6d28d9; border-color: #10b981 }`,
	}
	got := Extract(htmlText, cssTexts)

	if got.PrimaryColor != "#6d28d9" {
		t.Fatalf("PrimaryColor = %q, expected #6d28d9", got.PrimaryColor)
	}
	if got.SecondaryColor != "#10b981" {
		t.Fatalf("SecondaryColor = %q, expected #10b981", got.SecondaryColor)
	}
	if got.BackgroundColor != "#ffffff" || got.IsDark {
		t.Fatalf("background = %q isDark=%v, expected #ffffff light", got.BackgroundColor, got.IsDark)
	}
	if got.FontFamily != "Inter, sans-serif" {
		t.Fatalf("FontFamily = %q, expected %q", got.FontFamily, "Inter, sans-serif")
	}
	if got.LogoURL != "/static/logo.png" {
		t.Fatalf("LogoURL = %q, expected /static/logo.png", got.LogoURL)
	}
	if got.FaviconURL != "/favicon.ico" {
		t.Fatalf("FaviconURL = %q, expected /favicon.ico", got.FaviconURL)
	}
	if !strings.Contains(got.HeaderHTML, "logo.png") {
		t.Fatalf("HeaderHTML = %q, expected header markup", got.HeaderHTML)
	}
	if !strings.Contains(got.FooterHTML, "Contact us") {
		t.Fatalf("FooterHTML = %q, expected footer markup", got.FooterHTML)
	}
}

func TestExtractCSSTextsConcatenated(t *testing.T) {
	t.Parallel()
	// The same color split across blobs tallies as one entry.
	got := Extract("", []string{`.a { color: #e91e63 }`, `.b { color: #e91e63 }`, `.c { color: #2196f3 }`})
	if got.PrimaryColor != "#e91e63" || got.SecondaryColor != "#2196f3" {
		t.Fatalf("primary/secondary = %q/%q, expected #e91e63/#2196f3", got.PrimaryColor, got.SecondaryColor)
	}
}

func TestExtractDeterministic(t *testing.T) {
	t.Parallel()
	htmlText := `<header><img src="/logo.png"></header>`
	cssTexts := []string{`.a{color:#e91e63}.b{color:#2196f3}.c{color:#4caf50}.d{color:#ff9800}`}
	first := Extract(htmlText, cssTexts)
	for i := 0; i < 20; i++ {
		if got := Extract(htmlText, cssTexts); !reflect.DeepEqual(got, first) {
			t.Fatalf("Extract not deterministic: %+v, expected %+v", got, first)
		}
	}
}

func TestExtractHostileInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		html string
		css  string
	}{
		{"unclosed_tags", "<div><p><span", "body{"},
		{"control_bytes", "\x00\x01<p>x</p>", "@media{color:#"},
		{"deep_nesting", strings.Repeat("<div>", 500), strings.Repeat("a{color:#fff}", 50)},
		{"binary_noise", "\xff\xfe\x00garbage", "\xff{#\xfe}"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tc.html, []string{tc.css})
			if got.PrimaryColor == "" || got.BackgroundColor == "" || got.FontFamily == "" {
				t.Fatalf("Extract(%q, %q) returned incomplete theme %+v", tc.html, tc.css, got)
			}
		})
	}
}

func TestThemeJSONShape(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(Extract("", nil))
	if err != nil {
		t.Fatalf("marshal theme: %v", err)
	}
	s := string(raw)
	for _, key := range []string{`"primaryColor"`, `"secondaryColor"`, `"backgroundColor"`, `"isDark"`, `"logoUrl"`, `"faviconUrl"`} {
		if !strings.Contains(s, key) {
			t.Fatalf("marshaled theme %s missing key %s", s, key)
		}
	}
	if strings.Contains(s, "headerHtml") || strings.Contains(s, "siteCssUrls") {
		t.Fatalf("marshaled theme %s should omit empty optional fields", s)
	}
}

func TestWithBackgroundRederives(t *testing.T) {
	t.Parallel()
	base := Extract("", nil)
	got := base.WithBackground("#0a0a0f")

	if !got.IsDark {
		t.Fatal("WithBackground(#0a0a0f) should flip the theme dark")
	}
	if got.SurfaceColor != "#17171c" || got.ElevatedColor != "#1e1e23" {
		t.Fatalf("surfaces = %q/%q, expected #17171c/#1e1e23", got.SurfaceColor, got.ElevatedColor)
	}
	if got.TextColor != "#ffffff" || got.TextSecondaryColor != "#a1a1aa" || got.BorderColor != "#2a2a3a" {
		t.Fatalf("text/border = %q/%q/%q, expected dark palette",
			got.TextColor, got.TextSecondaryColor, got.BorderColor)
	}
	if got.PrimaryColor != base.PrimaryColor {
		t.Fatalf("PrimaryColor changed to %q, expected %q untouched", got.PrimaryColor, base.PrimaryColor)
	}
	if base.IsDark {
		t.Fatal("WithBackground must not mutate its receiver")
	}
}

func TestResolveAssetURLs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		logo        string
		favicon     string
		wantLogo    string
		wantFavicon string
	}{
		{"relative_paths", "/img/logo.svg", "favicon.ico",
			"https://acme.example/img/logo.svg", "https://acme.example/page/favicon.ico"},
		{"already_absolute", "https://cdn.example/logo.png", "//cdn.example/icon.png",
			"https://cdn.example/logo.png", "https://cdn.example/icon.png"},
		{"empty_stays_empty", "", "", "", ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			th := Theme{LogoURL: tc.logo, FaviconURL: tc.favicon}
			got := th.ResolveAssetURLs("https://acme.example/page/index.html")
			if got.LogoURL != tc.wantLogo {
				t.Fatalf("LogoURL = %q, expected %q", got.LogoURL, tc.wantLogo)
			}
			if got.FaviconURL != tc.wantFavicon {
				t.Fatalf("FaviconURL = %q, expected %q", got.FaviconURL, tc.wantFavicon)
			}
		})
	}
}

package theme

import (
	"regexp"
	"strings"
)

// Shallow single-rule lookups over raw CSS, not cascade resolution. The
// block patterns stop at the first closing brace, which is exact for the
// flat body/html/:root rules they target. \b keeps "tbody {" from
// satisfying the body lookup.
var (
	bodyBlockRe = regexp.MustCompile(`(?i)\bbody\s*\{([^}]*)\}`)
	htmlBlockRe = regexp.MustCompile(`(?i)\bhtml\s*\{([^}]*)\}`)
	rootBlockRe = regexp.MustCompile(`(?i):root\s*\{([^}]*)\}`)

	fontFamilyRe = regexp.MustCompile(`(?i)font-family\s*:\s*([^;}]+)`)
	backgroundRe = regexp.MustCompile(`(?i)background(?:-color)?\s*:\s*([^;}]+)`)
)

// ExtractFontFamily returns the font-family declared on body, falling back
// to html and then :root, scanning blocks in source order. The first
// declaration found wins; quotes are stripped from the value. Empty means
// no declaration was found.
func ExtractFontFamily(cssText string) string {
	for _, blockRe := range []*regexp.Regexp{bodyBlockRe, htmlBlockRe, rootBlockRe} {
		for _, block := range blockRe.FindAllStringSubmatch(cssText, -1) {
			if m := fontFamilyRe.FindStringSubmatch(block[1]); m != nil {
				return cleanFontFamily(m[1])
			}
		}
	}
	return ""
}

// ExtractBackgroundColor returns the background color declared on body as
// normalized hex, or empty when body declares none. Only body blocks are
// consulted. The first background/background-color declaration found
// decides the result, even when its value does not convert.
func ExtractBackgroundColor(cssText string) string {
	for _, block := range bodyBlockRe.FindAllStringSubmatch(cssText, -1) {
		m := backgroundRe.FindStringSubmatch(block[1])
		if m == nil {
			continue
		}
		return backgroundValueToHex(m[1])
	}
	return ""
}

// backgroundValueToHex converts a background declaration value: a hex
// literal anywhere in the value, else an rgb()/rgba() term, else a short
// table of named colors. transparent counts as white.
func backgroundValueToHex(value string) string {
	if lit := hexColorRe.FindString(value); lit != "" {
		if col, ok := parseHex(lit); ok {
			return col.hex()
		}
	}
	if fn := rgbColorRe.FindString(value); fn != "" {
		if col, ok := parseRGBFunctional(fn); ok {
			return col.hex()
		}
	}
	switch strings.ToLower(strings.TrimSpace(stripImportant(value))) {
	case "white", "transparent":
		return "#ffffff"
	case "black":
		return "#000000"
	case "red":
		return "#ff0000"
	case "blue":
		return "#0000ff"
	case "green":
		return "#008000"
	}
	return ""
}

func cleanFontFamily(value string) string {
	value = stripImportant(value)
	value = strings.NewReplacer(`"`, "", `'`, "").Replace(value)
	return strings.TrimSpace(value)
}

func stripImportant(value string) string {
	if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
		return value[:i]
	}
	return value
}

package theme

import (
	"regexp"
	"sort"
)

// The miners scan raw CSS with regular expressions rather than a CSS
// parser: stylesheet text from arbitrary sites is frequently malformed in
// ways an AST parser rejects wholesale, while a literal scan still finds
// every color worth ranking. Longer hex alternatives come first so an
// 8-digit literal is not truncated at 6.
var (
	hexColorRe = regexp.MustCompile(`#(?:[0-9a-fA-F]{8}|[0-9a-fA-F]{6}|[0-9a-fA-F]{4}|[0-9a-fA-F]{3})\b`)
	rgbColorRe = regexp.MustCompile(`(?i)rgba?\(\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*,\s*\d{1,3}%?\s*(?:,[^)]*)?\)`)
	hslColorRe = regexp.MustCompile(`(?i)hsla?\(\s*-?[\d.]+(?:deg)?\s*,\s*[\d.]+%?\s*,\s*[\d.]+%?\s*(?:,[^)]*)?\)`)
)

const maxMinedColors = 5

// MineColors scans CSS text for color literals and returns up to five
// distinct non-neutral colors as normalized lowercase hex, most frequent
// first. Ties keep the order in which the colors were first seen, with hex
// literals scanned before rgb() before hsl(). Text that matches no syntax
// is skipped; no input is an error.
func MineColors(cssText string) []string {
	type tally struct {
		hex   string
		count int
	}
	byHex := map[string]*tally{}
	var seen []*tally

	record := func(col rgbColor) {
		if col.isNeutral() {
			return
		}
		hex := col.hex()
		if t, ok := byHex[hex]; ok {
			t.count++
			return
		}
		t := &tally{hex: hex, count: 1}
		byHex[hex] = t
		seen = append(seen, t)
	}

	for _, m := range hexColorRe.FindAllString(cssText, -1) {
		if col, ok := parseHex(m); ok {
			record(col)
		}
	}
	for _, m := range rgbColorRe.FindAllString(cssText, -1) {
		if col, ok := parseRGBFunctional(m); ok {
			record(col)
		}
	}
	for _, m := range hslColorRe.FindAllString(cssText, -1) {
		if col, ok := parseHSLFunctional(m); ok {
			record(col)
		}
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return seen[i].count > seen[j].count
	})

	var out []string
	for _, t := range seen {
		out = append(out, t.hex)
		if len(out) == maxMinedColors {
			break
		}
	}
	return out
}

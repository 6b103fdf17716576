package theme

import "strings"

// StyleVariables serializes the theme as custom property declarations, one
// per line, in a fixed order. Every variable is always emitted, fallback
// values included, so the output shape never depends on what extraction
// found. The hover shade is derived here rather than stored: lightened for
// dark themes, darkened for light ones.
func (t Theme) StyleVariables() string {
	hover := -0.10
	if t.IsDark {
		hover = 0.08
	}
	var b strings.Builder
	writeVar := func(name, value string) {
		b.WriteString("--portal-")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(";\n")
	}
	writeVar("primary", t.PrimaryColor)
	writeVar("primary-hover", AdjustLightness(t.PrimaryColor, hover))
	writeVar("secondary", t.SecondaryColor)
	writeVar("background", t.BackgroundColor)
	writeVar("surface", t.SurfaceColor)
	writeVar("elevated", t.ElevatedColor)
	writeVar("text", t.TextColor)
	writeVar("text-secondary", t.TextSecondaryColor)
	writeVar("border", t.BorderColor)
	writeVar("font-family", t.FontFamily)
	return b.String()
}

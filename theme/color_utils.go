package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rgbColor struct {
	R uint8
	G uint8
	B uint8
}

func (c rgbColor) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// luminance is the simplified relative luminance used for the light/dark
// split: a weighted channel sum without sRGB gamma expansion. The weights
// are the Rec. 709 coefficients applied to raw 0..1 channel values.
func (c rgbColor) luminance() float64 {
	return 0.2126*float64(c.R)/255 + 0.7152*float64(c.G)/255 + 0.0722*float64(c.B)/255
}

// isNeutral reports whether the color is too close to gray, white or black
// to serve as a brand accent: channel spread under 20, or every channel
// above 240, or every channel below 15.
func (c rgbColor) isNeutral() bool {
	maxC := c.R
	minC := c.R
	for _, v := range [2]uint8{c.G, c.B} {
		if v > maxC {
			maxC = v
		}
		if v < minC {
			minC = v
		}
	}
	if int(maxC)-int(minC) < 20 {
		return true
	}
	if c.R > 240 && c.G > 240 && c.B > 240 {
		return true
	}
	if c.R < 15 && c.G < 15 && c.B < 15 {
		return true
	}
	return false
}

func (c rgbColor) adjust(amount float64) rgbColor {
	delta := amount * 255
	scale := func(channel uint8) uint8 {
		v := math.Round(float64(channel) + delta)
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return rgbColor{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// parseHex normalizes a hex literal to an rgbColor. Accepts 3, 4, 6 and
// 8 digit forms with or without the leading '#'; the alpha digits of the
// 4 and 8 digit forms are discarded.
func parseHex(value string) (rgbColor, bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3, 4:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	case 8:
		hex = hex[:6]
	default:
		return rgbColor{}, false
	}
	r, errR := strconv.ParseUint(hex[0:2], 16, 8)
	g, errG := strconv.ParseUint(hex[2:4], 16, 8)
	b, errB := strconv.ParseUint(hex[4:6], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return rgbColor{}, false
	}
	return rgbColor{uint8(r), uint8(g), uint8(b)}, true
}

func parseRGBComponent(component string) uint8 {
	component = strings.TrimSpace(component)
	if component == "" {
		return 0
	}
	if strings.HasSuffix(component, "%") {
		component = strings.TrimSuffix(component, "%")
		value, err := strconv.Atoi(strings.TrimSpace(component))
		if err != nil {
			return 0
		}
		if value < 0 {
			value = 0
		} else if value > 100 {
			value = 100
		}
		return uint8(float64(value) * 255.0 / 100.0)
	}
	value, err := strconv.Atoi(component)
	if err != nil {
		return 0
	}
	if value < 0 {
		value = 0
	} else if value > 255 {
		value = 255
	}
	return uint8(value)
}

// parseRGBFunctional converts "rgb(...)" / "rgba(...)" notation. Components
// may be integers or percentages; out-of-range values are clamped and the
// alpha component is ignored.
func parseRGBFunctional(expr string) (rgbColor, bool) {
	open := strings.IndexByte(expr, '(')
	close := strings.LastIndexByte(expr, ')')
	if open < 0 || close <= open+1 {
		return rgbColor{}, false
	}
	parts := strings.Split(expr[open+1:close], ",")
	if len(parts) < 3 {
		return rgbColor{}, false
	}
	return rgbColor{
		R: parseRGBComponent(parts[0]),
		G: parseRGBComponent(parts[1]),
		B: parseRGBComponent(parts[2]),
	}, true
}

// parseHSLFunctional converts "hsl(...)" / "hsla(...)" notation. Hue may
// carry a "deg" suffix, saturation and lightness a "%"; the alpha component
// is ignored.
func parseHSLFunctional(expr string) (rgbColor, bool) {
	open := strings.IndexByte(expr, '(')
	close := strings.LastIndexByte(expr, ')')
	if open < 0 || close <= open+1 {
		return rgbColor{}, false
	}
	parts := strings.Split(expr[open+1:close], ",")
	if len(parts) < 3 {
		return rgbColor{}, false
	}
	h, errH := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[0]), "deg"), 64)
	s, errS := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[1]), "%"), 64)
	l, errL := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[2]), "%"), 64)
	if errH != nil || errS != nil || errL != nil {
		return rgbColor{}, false
	}
	return hslToRGB(h, s, l), true
}

// hslToRGB converts hue (degrees), saturation and lightness (both 0..100)
// using a = s*min(l, 1-l) and f(n) = l - a*clamp(min(k-3, 9-k), -1, 1)
// with k = (n + h/30) mod 12, sampled at n = 0, 8, 4.
func hslToRGB(h, s, l float64) rgbColor {
	s /= 100
	l /= 100
	a := s * math.Min(l, 1-l)
	f := func(n float64) uint8 {
		k := math.Mod(n+h/30, 12)
		if k < 0 {
			k += 12
		}
		m := math.Min(k-3, 9-k)
		if m > 1 {
			m = 1
		} else if m < -1 {
			m = -1
		}
		return uint8(math.Round((l - a*m) * 255))
	}
	return rgbColor{R: f(0), G: f(8), B: f(4)}
}

func hslToHex(h, s, l float64) string {
	return hslToRGB(h, s, l).hex()
}

// IsNeutral reports whether a hex color is too close to gray, white or
// black to serve as a brand accent. Unparseable input counts as neutral.
func IsNeutral(hex string) bool {
	col, ok := parseHex(hex)
	if !ok {
		return true
	}
	return col.isNeutral()
}

// Luminance returns the simplified relative luminance of a hex color in
// [0,1]. Unparseable input counts as fully light.
func Luminance(hex string) float64 {
	col, ok := parseHex(hex)
	if !ok {
		return 1.0
	}
	return col.luminance()
}

// AdjustLightness shifts every channel of a hex color by amount*255,
// clamped to the valid range. A positive amount lightens, a negative one
// darkens. Unparseable input is returned unchanged.
func AdjustLightness(hex string, amount float64) string {
	col, ok := parseHex(hex)
	if !ok {
		return hex
	}
	return col.adjust(amount).hex()
}

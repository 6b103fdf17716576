package sitefetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"themeforge/theme"
)

const (
	logoSampleSize  = 64
	logoPaletteSize = 5
)

// MineLogoPalette downloads a logo image and returns its dominant
// non-neutral colors as normalized hex, most frequent first, capped at
// five. Channels are quantized to 16 levels so anti-aliased edge pixels
// tally with their parent color.
func (f *Fetcher) MineLogoPalette(ctx context.Context, logoURL string) ([]string, error) {
	raw, ok := f.fetchText(ctx, logoURL, "image/*")
	if !ok {
		return nil, fmt.Errorf("fetch logo %q failed", logoURL)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode logo %q: %w", logoURL, err)
	}
	return minePalette(scaleDown(img)), nil
}

// RefineAccents replaces fallback accent colors with the logo's dominant
// colors when CSS mining found nothing to rank. Themes whose accents were
// mined from real CSS are left alone.
func (f *Fetcher) RefineAccents(ctx context.Context, th *theme.Theme) {
	if th.LogoURL == "" {
		return
	}
	if th.PrimaryColor != theme.FallbackPrimary || th.SecondaryColor != theme.FallbackSecondary {
		return
	}
	palette, err := f.MineLogoPalette(ctx, th.LogoURL)
	if err != nil {
		f.logger.Debug("logo palette mining failed", zap.String("logo", th.LogoURL), zap.Error(err))
		return
	}
	if len(palette) > 0 {
		th.PrimaryColor = palette[0]
	}
	if len(palette) > 1 {
		th.SecondaryColor = palette[1]
	}
}

// scaleDown clamps the image to logoSampleSize on its longer side so the
// pixel scan stays cheap on full-size artwork.
func scaleDown(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= logoSampleSize && h <= logoSampleSize {
		return img
	}
	scale := float64(logoSampleSize) / float64(w)
	if h > w {
		scale = float64(logoSampleSize) / float64(h)
	}
	dw := int(float64(w)*scale + 0.5)
	dh := int(float64(h)*scale + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// minePalette tallies quantized opaque pixels, drops neutrals, and ranks
// by count with first-seen order breaking ties.
func minePalette(img image.Image) []string {
	type tally struct {
		hex   string
		count int
	}
	byHex := map[string]*tally{}
	var seen []*tally

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			hex := fmt.Sprintf("#%02x%02x%02x",
				quantizeChannel(uint8(r>>8)),
				quantizeChannel(uint8(g>>8)),
				quantizeChannel(uint8(bl>>8)))
			if theme.IsNeutral(hex) {
				continue
			}
			if t, ok := byHex[hex]; ok {
				t.count++
				continue
			}
			t := &tally{hex: hex, count: 1}
			byHex[hex] = t
			seen = append(seen, t)
		}
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return seen[i].count > seen[j].count
	})

	var out []string
	for _, t := range seen {
		out = append(out, t.hex)
		if len(out) == logoPaletteSize {
			break
		}
	}
	return out
}

// quantizeChannel buckets a channel into 16 evenly spread levels
// (0x00, 0x11, ... 0xff).
func quantizeChannel(v uint8) uint8 {
	return (v >> 4) * 17
}

// Command cssdebug fetches a page and dumps the raw signals theme
// extraction works from: every collected stylesheet, the ranked accent
// colors, and the font, background, logo and chrome lookups. Useful when
// a site's extracted theme looks wrong.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/net/html"

	"themeforge/internal/sitefetch"
	"themeforge/theme"
)

func main() {
	renderFlag := flag.Bool("render-js", false, "render the page in a headless browser first")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cssdebug [-render-js] <url>")
		os.Exit(2)
	}

	var renderer *sitefetch.Renderer
	if *renderFlag {
		renderer = sitefetch.NewRenderer(nil, 0)
		defer renderer.Close()
	}
	f := sitefetch.New(sitefetch.Config{Renderer: renderer})

	snap, err := f.Fetch(context.Background(), flag.Arg(0), sitefetch.Options{RenderJS: *renderFlag})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("page %s (via %s)\n", snap.URL, snap.FetchedVia)
	fmt.Printf("stylesheets: %d collected, %d external\n", len(snap.CSSTexts), len(snap.CSSURLs))
	for _, u := range snap.CSSURLs {
		fmt.Printf("  %s\n", u)
	}

	all := strings.Join(snap.CSSTexts, "\n")
	fmt.Printf("css bytes: %d\n", len(all))

	fmt.Println("mined colors (ranked):")
	for _, c := range theme.MineColors(all) {
		fmt.Printf("  %s  luminance=%.3f\n", c, theme.Luminance(c))
	}

	fmt.Printf("font-family: %s\n", orNone(theme.ExtractFontFamily(all)))
	fmt.Printf("background:  %s\n", orNone(theme.ExtractBackgroundColor(all)))

	doc, err := html.Parse(strings.NewReader(snap.HTML))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("logo:    %s\n", orNone(theme.ExtractLogo(doc)))
	fmt.Printf("favicon: %s\n", orNone(theme.ExtractFavicon(doc)))
	chrome := theme.ExtractChrome(doc)
	fmt.Printf("chrome:  header %d bytes, footer %d bytes\n",
		len(chrome.HeaderHTML), len(chrome.FooterHTML))

	th := theme.Extract(snap.HTML, snap.CSSTexts)
	fmt.Printf("theme: primary=%s secondary=%s background=%s dark=%v\n",
		th.PrimaryColor, th.SecondaryColor, th.BackgroundColor, th.IsDark)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

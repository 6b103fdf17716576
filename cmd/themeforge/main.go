// Command themeforge mines website themes for branded support portals,
// either as a long-running HTTP service or as one-shot CLI extractions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"themeforge/internal/config"
	"themeforge/internal/portal"
	"themeforge/internal/sitefetch"
	"themeforge/internal/themestore"
	"themeforge/theme"
)

var (
	configPath  string
	renderJS    bool
	asVariables bool
	saveTheme   bool
	appVersion  = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "themeforge",
	Short: "Website theme extraction for branded support portals",
	Long: "Themeforge mines a website's colors, fonts, logo and page chrome into\n" +
		"a portable theme, served over HTTP or extracted one-shot from the CLI.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the theme extraction HTTP service",
	RunE:  runServe,
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract a site's theme and print it",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var previewCmd = &cobra.Command{
	Use:   "preview <url|site>",
	Short: "Render a theme's palette as terminal swatches",
	Long: "Preview renders a theme as truecolor swatches. The argument is either\n" +
		"a stored site key (previewed straight from the database) or a URL to\n" +
		"extract live.",
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.Version = appVersion
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search for themeforge.yaml)")

	extractCmd.Flags().BoolVar(&renderJS, "render-js", false, "Render the page in a headless browser before extracting")
	extractCmd.Flags().BoolVar(&asVariables, "variables", false, "Print CSS custom properties instead of theme JSON")
	extractCmd.Flags().BoolVar(&saveTheme, "save", false, "Save the extracted theme to the database")
	previewCmd.Flags().BoolVar(&renderJS, "render-js", false, "Render the page in a headless browser before extracting")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(previewCmd)
}

// bootstrap loads configuration and builds the process logger from it.
func bootstrap() (*viper.Viper, *zap.Logger, error) {
	v, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := config.NewLogger(v)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return v, logger, nil
}

// newFetcher builds the site fetcher from configuration, attaching a
// headless browser renderer when withRenderer is set.
func newFetcher(v *viper.Viper, logger *zap.Logger, withRenderer bool) (*sitefetch.Fetcher, *sitefetch.Renderer) {
	var renderer *sitefetch.Renderer
	if withRenderer {
		renderer = sitefetch.NewRenderer(logger.Named("render"), v.GetDuration("fetch.js_wait"))
	}
	f := sitefetch.New(sitefetch.Config{
		Logger:      logger.Named("fetch"),
		UserAgent:   v.GetString("fetch.user_agent"),
		Timeout:     v.GetDuration("fetch.timeout"),
		MaxCSSFiles: v.GetInt("fetch.max_css_files"),
		Renderer:    renderer,
	})
	return f, renderer
}

// openStore opens the theme database, creating its parent directory first.
func openStore(v *viper.Viper) (*themestore.Store, string, error) {
	dbPath := v.GetString("database.path")
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dbPath, fmt.Errorf("create data dir %q: %w", dir, err)
		}
	}
	st, err := themestore.Open(dbPath)
	return st, dbPath, err
}

func runServe(_ *cobra.Command, _ []string) error {
	v, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("themeforge starting", zap.String("version", appVersion))
	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	st, dbPath, err := openStore(v)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		return err
	}
	defer st.Close()
	logger.Info("database initialized", zap.String("path", dbPath))

	fetcher, renderer := newFetcher(v, logger, v.GetBool("fetch.render_js"))
	if renderer != nil {
		defer renderer.Close()
		logger.Info("headless browser rendering enabled",
			zap.Duration("js_wait", v.GetDuration("fetch.js_wait")))
	}

	portalSrv := portal.New(portal.Config{
		Logger:       logger.Named("portal"),
		Store:        st,
		Fetcher:      fetcher,
		OverridesDir: v.GetString("overrides.dir"),
		CacheTTL:     v.GetDuration("cache.ttl"),
	})

	addr := v.GetString("server.host") + ":" + v.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: portalSrv.Handler(),
		// Extract requests spend most of their budget fetching the target
		// site, so the write timeout must outlast the fetch timeouts.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()
	logger.Info("themeforge ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("themeforge stopped")
	return nil
}

func runExtract(_ *cobra.Command, args []string) error {
	v, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher, renderer := newFetcher(v, logger, renderJS || v.GetBool("fetch.render_js"))
	if renderer != nil {
		defer renderer.Close()
	}

	th, site, err := extractOnce(ctx, fetcher, args[0])
	if err != nil {
		return err
	}

	if saveTheme {
		st, _, err := openStore(v)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
		now := time.Now().UTC()
		rec := themestore.Record{Site: site, Theme: th, ExtractedAt: now, UpdatedAt: now}
		if err := st.Save(ctx, rec); err != nil {
			return err
		}
		logger.Info("theme saved", zap.String("site", site))
	}

	if asVariables {
		fmt.Print(":root {\n" + th.StyleVariables() + "}\n")
		return nil
	}
	out, err := json.MarshalIndent(th, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runPreview(_ *cobra.Command, args []string) error {
	v, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	target := strings.TrimSpace(args[0])

	// A bare host with a stored theme previews straight from the database.
	if !strings.Contains(target, "/") {
		if _, statErr := os.Stat(v.GetString("database.path")); statErr == nil {
			if st, _, err := openStore(v); err == nil {
				rec, getErr := st.Get(ctx, target)
				st.Close()
				if getErr == nil {
					printPreview(rec.Site, rec.Theme)
					return nil
				}
			}
		}
	}

	fetcher, renderer := newFetcher(v, logger, renderJS || v.GetBool("fetch.render_js"))
	if renderer != nil {
		defer renderer.Close()
	}
	th, site, err := extractOnce(ctx, fetcher, target)
	if err != nil {
		return err
	}
	printPreview(site, th)
	return nil
}

// extractOnce fetches one page and derives its theme the same way the
// HTTP service does.
func extractOnce(ctx context.Context, fetcher *sitefetch.Fetcher, target string) (theme.Theme, string, error) {
	snap, err := fetcher.Fetch(ctx, target, sitefetch.Options{RenderJS: renderJS})
	if err != nil {
		return theme.Theme{}, "", err
	}
	th := theme.Extract(snap.HTML, snap.CSSTexts)
	th.SiteCSSURLs = snap.CSSURLs
	th = th.ResolveAssetURLs(snap.URL)
	fetcher.RefineAccents(ctx, &th)

	site := ""
	if u, err := url.Parse(snap.URL); err == nil {
		site = themestore.CanonicalSite(u.Hostname())
	}
	return th, site, nil
}

// previewStyles is the terminal palette for preview output.
type previewStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	hex   lipgloss.Style
	meta  lipgloss.Style
}

func newPreviewStyles() previewStyles {
	return previewStyles{
		title: lipgloss.NewStyle().Bold(true).Underline(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("249")).Width(16),
		hex:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		meta:  lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
	}
}

func printPreview(site string, th theme.Theme) {
	st := newPreviewStyles()
	if site == "" {
		site = "theme"
	}
	fmt.Println(st.title.Render(site))

	rows := []struct {
		label string
		hex   string
	}{
		{"Primary", th.PrimaryColor},
		{"Secondary", th.SecondaryColor},
		{"Background", th.BackgroundColor},
		{"Surface", th.SurfaceColor},
		{"Elevated", th.ElevatedColor},
		{"Text", th.TextColor},
		{"Text secondary", th.TextSecondaryColor},
		{"Border", th.BorderColor},
	}
	for _, row := range rows {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(row.hex)).Render("      ")
		fmt.Printf("%s %s %s\n", st.label.Render(row.label), swatch, st.hex.Render(row.hex))
	}

	mode := "light"
	if th.IsDark {
		mode = "dark"
	}
	fmt.Println(st.label.Render("Mode") + " " + st.meta.Render(mode))
	fmt.Println(st.label.Render("Font") + " " + st.meta.Render(th.FontFamily))
	if th.LogoURL != "" {
		fmt.Println(st.label.Render("Logo") + " " + st.meta.Render(th.LogoURL))
	}
	if th.FaviconURL != "" {
		fmt.Println(st.label.Render("Favicon") + " " + st.meta.Render(th.FaviconURL))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

package sitefetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	renderTimeout   = 25 * time.Second
	defaultJSWait   = 2 * time.Second
	networkPollTick = 50 * time.Millisecond
)

// Renderer drives a headless browser for pages that build their DOM in
// JavaScript. One Renderer shares a browser allocator across fetches; each
// Render call runs in a fresh browser context.
type Renderer struct {
	allocator context.Context
	cancel    context.CancelFunc
	logger    *zap.Logger
	jsWait    time.Duration
}

// NewRenderer prepares a headless-browser allocator. The browser process
// itself starts lazily on the first Render. jsWait is how long the network
// must stay quiet before the DOM is read; zero means the default.
func NewRenderer(logger *zap.Logger, jsWait time.Duration) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if jsWait <= 0 {
		jsWait = defaultJSWait
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		allocator: allocCtx,
		cancel:    cancel,
		logger:    logger,
		jsWait:    jsWait,
	}
}

// Close tears down the browser allocator and any running browser.
func (r *Renderer) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Render loads target in the browser, waits for the network to settle and
// returns the rendered document plus the final URL after redirects.
func (r *Renderer) Render(ctx context.Context, target, userAgent string) (string, string, error) {
	if strings.TrimSpace(target) == "" {
		return "", "", fmt.Errorf("render: empty target url")
	}

	taskCtx, cancelBrowser := chromedp.NewContext(r.allocator)
	defer cancelBrowser()

	// Bind browser lifetime to the caller's context.
	if ctx != nil {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithCancel(taskCtx)
		defer cancel()
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-taskCtx.Done():
			}
		}()
	}

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, renderTimeout)
	defer cancelTimeout()

	var mu sync.Mutex
	activeRequests := 0
	lastActivity := time.Now()

	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			mu.Lock()
			activeRequests++
			lastActivity = time.Now()
			mu.Unlock()
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			mu.Lock()
			if activeRequests > 0 {
				activeRequests--
			}
			lastActivity = time.Now()
			mu.Unlock()
		}
	})

	var finalURL, htmlContent string
	actions := []chromedp.Action{
		network.Enable(),
	}
	if userAgent != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(userAgent).Do(ctx)
		}))
	}
	actions = append(actions,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Hold until the network has been quiet for jsWait.
			ticker := time.NewTicker(networkPollTick)
			defer ticker.Stop()
			for {
				mu.Lock()
				active := activeRequests
				quiet := time.Since(lastActivity)
				mu.Unlock()
				if active == 0 && quiet >= r.jsWait {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		}),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)

	start := time.Now()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", "", fmt.Errorf("render %s: %w", target, err)
	}
	r.logger.Debug("page rendered",
		zap.String("url", target),
		zap.Duration("took", time.Since(start)))

	if finalURL == "" {
		finalURL = target
	}
	return htmlContent, finalURL, nil
}

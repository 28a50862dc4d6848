package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

// BrowserFetcher renders pages in headless Chromium via Rod. Every page is
// opened through go-rod/stealth. Use it when the listing is built by
// JavaScript.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.FetcherConfig
	logger  *slog.Logger
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:    &cfg.Fetcher,
		logger: logger.With("component", "browser_fetcher"),
	}

	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready")
	return bf, nil
}

// Fetch navigates to a URL and returns the rendered HTML. Rod does not
// expose the document status, so successful navigations report 200.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	timeout := bf.cfg.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	page, err := stealth.Page(bf.browser)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: fmt.Errorf("stealth page: %w", err)}
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx).Timeout(timeout)

	if bf.cfg.UserAgent != "" {
		err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.cfg.UserAgent})
		if err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	var headers []string
	for k, v := range bf.cfg.Headers {
		headers = append(headers, k, v)
	}
	for k, vals := range req.Headers {
		for _, v := range vals {
			headers = append(headers, k, v)
		}
	}
	if len(headers) > 0 {
		if _, err := p.SetExtraHeaders(headers); err != nil {
			bf.logger.Warn("failed to set headers", "error", err)
		}
	}

	if err := p.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	if err := p.WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	finalURL := req.URLString()
	if info, err := p.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewBrowserResponse(req, 200, []byte(html), finalURL, duration), nil
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

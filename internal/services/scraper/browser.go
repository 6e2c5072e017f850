package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/common"
	"github.com/ternarybob/brokercalls/internal/httpclient"
	"github.com/ternarybob/brokercalls/internal/models"
)

// BrowserStrategy drives a headless Chrome through the recommendation pages.
// It runs first in the acquisition cascade because the origin site renders
// most of its content client-side and blocks plain HTTP clients.
type BrowserStrategy struct {
	config *common.ScraperConfig
	parser *Parser
	logger arbor.ILogger
}

func NewBrowserStrategy(config *common.ScraperConfig, parser *Parser, logger arbor.ILogger) *BrowserStrategy {
	return &BrowserStrategy{
		config: config,
		parser: parser,
		logger: logger,
	}
}

func (s *BrowserStrategy) Name() string { return "browser" }

// stealthJS masks the automation fingerprints Chrome exposes under chromedp.
const stealthJS = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
		configurable: true
	});

	Object.defineProperty(navigator, 'plugins', {
		get: () => {
			const plugins = [
				{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
				{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
				{ name: 'Native Client', filename: 'internal-nacl-plugin' }
			];
			plugins.length = 3;
			return plugins;
		},
		configurable: true
	});

	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
		configurable: true
	});

	if (!window.chrome) window.chrome = {};
	window.chrome.runtime = { id: undefined };
`

// scrollJS nudges lazy-loaded recommendation widgets into rendering.
const scrollJS = `
	window.scrollTo(0, document.body.scrollHeight / 3);
	setTimeout(() => window.scrollTo(0, document.body.scrollHeight * 2 / 3), 400);
	setTimeout(() => window.scrollTo(0, document.body.scrollHeight), 800);
`

// Fetch visits each configured page in order, accumulating parsed records.
// Once the soft target is met remaining pages are skipped. A page that fails
// is logged and skipped; the strategy errors only when every page fails.
func (s *BrowserStrategy) Fetch(ctx context.Context) ([]models.Recommendation, error) {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	seen := make(map[string]bool)
	var records []models.Recommendation
	var lastErr error
	failures := 0

	for _, url := range s.config.BrowserURLs {
		if len(records) >= s.config.RecordTarget {
			s.logger.Debug().Int("count", len(records)).Msg("Record target reached, skipping remaining pages")
			break
		}

		pageRecords, err := s.fetchPage(browserCtx, url)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", url).Msg("Browser page fetch failed")
			lastErr = err
			failures++
			continue
		}

		for _, rec := range pageRecords {
			key := rec.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, rec)
		}

		s.logger.Info().
			Str("url", url).
			Int("page_records", len(pageRecords)).
			Int("total", len(records)).
			Msg("Browser page scraped")
	}

	if failures == len(s.config.BrowserURLs) && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

func (s *BrowserStrategy) fetchPage(browserCtx context.Context, url string) ([]models.Recommendation, error) {
	pageCtx, pageCancel := chromedp.NewContext(browserCtx)
	defer pageCancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(pageCtx, s.config.PageTimeout)
	defer timeoutCancel()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(stealthJS, nil),
		chromedp.Sleep(s.config.JavaScriptWaitTime),
		chromedp.Evaluate(scrollJS, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, err
	}

	// A bot-detection interstitial often clears on a single reload.
	if isAccessDenied(html) {
		s.logger.Warn().Str("url", url).Msg("Access denied page detected, reloading")
		err = chromedp.Run(timeoutCtx,
			page.Reload(),
			chromedp.Sleep(s.config.JavaScriptWaitTime),
			chromedp.OuterHTML("html", &html),
		)
		if err != nil {
			return nil, err
		}
	}

	return s.parser.Parse(timeoutCtx, html), nil
}

func (s *BrowserStrategy) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(httpclient.RandomChromeUserAgent()),
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
	}

	if s.config.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if s.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	return opts
}

func isAccessDenied(html string) bool {
	lower := strings.ToLower(html)
	return strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "blocked") && strings.Contains(lower, "request") ||
		strings.Contains(lower, "captcha")
}

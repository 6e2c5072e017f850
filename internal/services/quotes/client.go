package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/brokercalls/internal/common"
	"github.com/ternarybob/brokercalls/internal/httpclient"
)

const (
	// DefaultRateLimit caps secondary-lookup requests per second.
	DefaultRateLimit = 5

	// minSimilarity is the Jaro-Winkler floor for accepting a suggestion
	// whose name is not a plain substring match.
	minSimilarity = 0.85

	minQuotePrice = 10
	maxQuotePrice = 50000
)

// Client resolves live market prices for company names through the origin's
// public quote endpoints. Lookups are best-effort: every failure path returns
// 0 so a missing price never fails a scrape.
type Client struct {
	config  *common.QuotesConfig
	http    *resty.Client
	logger  arbor.ILogger
	limiter *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom resty client.
func WithHTTPClient(http *resty.Client) ClientOption {
	return func(c *Client) {
		c.http = http
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a quote lookup client.
func NewClient(config *common.QuotesConfig, logger arbor.ILogger, opts ...ClientOption) *Client {
	rps := config.RateLimit
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	c := &Client{
		config:  config,
		http:    httpclient.NewOriginClient(config.QuoteTimeout, httpclient.RandomChromeUserAgent()),
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	priceTextRe = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)`)

	liveQuoteKeys = []string{"lastPrice", "last_price", "ltp", "price", "pricecurrent", "close", "c"}
)

// CurrentPrice resolves a live price for a company name through three
// independent strategies: the autocomplete-then-quote APIs for each name
// variation, then the slug-keyed price feed for each variation, then scraping
// the guessed quote pages. Returns 0 when nothing yields a plausible price.
func (c *Client) CurrentPrice(ctx context.Context, companyName string) float64 {
	if strings.TrimSpace(companyName) == "" {
		return 0
	}

	variations := nameVariations(companyName)

	for _, variation := range variations {
		scID := c.suggest(ctx, variation, companyName)
		if scID == "" {
			continue
		}
		if price := c.liveQuote(ctx, scID); quotePlausible(price) {
			return price
		}
	}

	for _, variation := range variations {
		if price := c.priceFeed(ctx, variation); quotePlausible(price) {
			return price
		}
	}

	if price := c.quotePage(ctx, companyName); quotePlausible(price) {
		return price
	}

	c.logger.Debug().Str("company", companyName).Msg("No live price found")
	return 0
}

// suggest queries the autocomplete endpoint for a search term and returns
// the security id of the best-matching suggestion, or "".
func (c *Client) suggest(ctx context.Context, term, companyName string) string {
	if err := c.limiter.Wait(ctx); err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.SuggestTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", term).
		SetQueryParam("type", "1").
		SetQueryParam("format", "json").
		Get(c.config.SuggestURL)
	if err != nil || resp.StatusCode() != 200 {
		return ""
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(resp.Body(), &suggestions); err != nil {
		return ""
	}

	wanted := strings.ToLower(companyName)
	for _, s := range suggestions {
		if s.ScID == "" {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(htmlTagRe.ReplaceAllString(s.Name(), "")))
		if name == "" {
			continue
		}
		if strings.Contains(name, wanted) || strings.Contains(wanted, name) {
			return s.ScID
		}
		if matchr.JaroWinkler(name, wanted, true) >= minSimilarity {
			return s.ScID
		}
	}
	return ""
}

// liveQuote fetches the JSON quote for a security id and scans the response
// for any known price field, including one level of nesting.
func (c *Client) liveQuote(ctx context.Context, scID string) float64 {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.QuoteTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/%s", strings.TrimRight(c.config.LiveQuoteURL, "/"), scID))
	if err != nil || resp.StatusCode() != 200 {
		return 0
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return 0
	}
	return priceFromPayload(payload)
}

// priceFeed hits the lightweight price API keyed by the lowercased search
// term and reads the pricecurrent field. It needs no suggestion lookup, which
// makes it a usable fallback when autocomplete is down.
func (c *Client) priceFeed(ctx context.Context, term string) float64 {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.QuoteTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/%s", strings.TrimRight(c.config.PriceFeedURL, "/"), url.PathEscape(strings.ToLower(term))))
	if err != nil || resp.StatusCode() != 200 {
		return 0
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return 0
	}

	switch v := payload["pricecurrent"].(type) {
	case float64:
		return v
	case string:
		return parseQuotePrice(v)
	}
	return 0
}

// quotePageSelectors are tried in order against the human-facing quote page.
var quotePageSelectors = []string{
	".pcnspa",
	".span_price_wrap",
	".price_current",
	`[id*="Nse_Prc_tick"]`,
	`[class*="price"]`,
}

// quotePage guesses the company's quote page URL from its name slug, trying
// each configured page prefix, and scrapes the first visible price.
func (c *Client) quotePage(ctx context.Context, companyName string) float64 {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(companyName), " ", "-"))
	if slug == "" {
		return 0
	}

	for _, prefix := range c.config.QuotePageURLs {
		if price := c.scrapeQuotePage(ctx, fmt.Sprintf("%s/%s", strings.TrimRight(prefix, "/"), slug)); price > 0 {
			return price
		}
	}
	return 0
}

func (c *Client) scrapeQuotePage(ctx context.Context, pageURL string) float64 {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.QuoteTimeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil || resp.StatusCode() != 200 {
		return 0
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return 0
	}

	for _, selector := range quotePageSelectors {
		var price float64
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := priceTextRe.FindStringSubmatch(s.Text()); m != nil {
				if f := parseQuotePrice(m[1]); quotePlausible(f) {
					price = f
					return false
				}
			}
			return true
		})
		if price > 0 {
			return price
		}
	}
	return 0
}

// nameVariations yields the search terms tried for a company name, most
// specific first. Order matters: the raw name usually hits, and the
// progressively generic forms rescue names the feed abbreviates.
func nameVariations(name string) []string {
	name = strings.TrimSpace(name)
	variations := []string{name}

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || len(v) < 3 {
			return
		}
		for _, existing := range variations {
			if strings.EqualFold(existing, v) {
				return
			}
		}
		variations = append(variations, v)
	}

	add(strings.ReplaceAll(name, " ", ""))
	add(strings.ReplaceAll(name, "Limited", "Ltd"))
	add(strings.TrimSuffix(strings.TrimSuffix(name, " Ltd"), " Limited"))
	if fields := strings.Fields(name); len(fields) > 1 {
		add(fields[0])
	}
	add(strings.ReplaceAll(strings.ReplaceAll(name, " Bank", ""), " Finance", ""))

	return variations
}

// priceFromPayload scans a decoded JSON object for any known price key,
// descending one level through "data"-style nested objects.
func priceFromPayload(payload map[string]any) float64 {
	if price := priceFromObject(payload); price > 0 {
		return price
	}
	for _, v := range payload {
		if nested, ok := v.(map[string]any); ok {
			if price := priceFromObject(nested); price > 0 {
				return price
			}
		}
	}
	return 0
}

func priceFromObject(obj map[string]any) float64 {
	for _, key := range liveQuoteKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if quotePlausible(n) {
				return n
			}
		case string:
			if f := parseQuotePrice(n); quotePlausible(f) {
				return f
			}
		}
	}
	return 0
}

func parseQuotePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

func quotePlausible(price float64) bool {
	return price >= minQuotePrice && price <= maxQuotePrice
}

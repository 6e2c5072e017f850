package scraper

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/models"
)

// PriceLookup resolves a company's live market price from a secondary source.
// Implementations return 0 when no price can be found; they never fail the
// parse.
type PriceLookup interface {
	CurrentPrice(ctx context.Context, companyName string) float64
}

// Parser turns raw page HTML into recommendation records. It tries embedded
// script JSON, recommendation containers, and stock-link context, with
// first-seen dedup by company|broker, and falls back to plain-text patterns
// when none of those produced anything.
type Parser struct {
	logger arbor.ILogger
	prices PriceLookup
}

func NewParser(logger arbor.ILogger, prices PriceLookup) *Parser {
	return &Parser{logger: logger, prices: prices}
}

const maxTextRecommendations = 20

var (
	jsonObjectRe = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	containerClassRe = regexp.MustCompile(`(?i)(stock|recommendation|research|idea|row|item)`)

	stockLinkRe = regexp.MustCompile(`(?i)/stocks?/|/stockpricequote/|/company/`)

	// Loose verdict phrasings the origin site uses in headlines and blurbs.
	// The first capture group is the verdict when it comes first, the company
	// otherwise.
	textPatternRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([A-Za-z\s&]+?):\s*(BUY|SELL|HOLD)`),
		regexp.MustCompile(`(?i)(BUY|SELL|HOLD)\s+([A-Za-z\s&]+)`),
		regexp.MustCompile(`(?i)([A-Za-z\s&]+?)\s+-\s*(BUY|SELL|HOLD)`),
	}

	jsonNameKeys   = []string{"name", "company", "companyName", "company_name", "stockName", "stock_name", "symbol"}
	jsonPriceKeys  = []string{"price", "currentPrice", "current_price", "lastPrice", "last_price", "ltp", "cmp"}
	jsonTargetKeys = []string{"targetPrice", "target_price", "target", "priceTarget", "price_target", "tp"}
	jsonCallKeys   = []string{"recommendation", "call", "action", "rating", "reco"}
)

// Parse extracts recommendations from an HTML document. The structured
// strategies all run, adding only records whose company|broker key is unseen;
// the plain-text pass fires only when they found nothing at all. Priceless
// records found via containers get a one-shot lookup through the secondary
// price source.
func (p *Parser) Parse(ctx context.Context, html string) []models.Recommendation {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to parse HTML document")
		return nil
	}

	seen := make(map[string]bool)
	var records []models.Recommendation

	add := func(rec models.Recommendation, backfill bool) {
		rec.CompanyName = CleanCompanyName(rec.CompanyName)
		if !IsValidCompanyName(rec.CompanyName) {
			return
		}
		if rec.BrokerName == "" {
			rec.BrokerName = models.DefaultBrokerName
		}
		key := rec.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		if backfill && rec.CurrentPrice == 0 && p.prices != nil {
			rec.CurrentPrice = p.prices.CurrentPrice(ctx, rec.CompanyName)
		}
		records = append(records, rec)
	}

	p.parseScriptJSON(doc, add)
	scriptCount := len(records)

	p.parseContainers(doc, add)
	containerCount := len(records) - scriptCount

	p.parseLinkContext(doc, add)
	if len(records) == 0 {
		p.parseText(doc, add)
	}

	p.logger.Debug().
		Int("total", len(records)).
		Int("from_script", scriptCount).
		Int("from_containers", containerCount).
		Msg("Parsed recommendations from page")

	return records
}

// parseScriptJSON scans <script> bodies for embedded JSON objects carrying
// stock data keyed by any of the known field synonyms.
func (p *Parser) parseScriptJSON(doc *goquery.Document, add func(models.Recommendation, bool)) {
	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		body := script.Text()
		if !strings.Contains(body, "price") && !strings.Contains(body, "target") {
			return
		}
		for _, raw := range jsonObjectRe.FindAllString(body, -1) {
			var obj map[string]any
			if err := json.Unmarshal([]byte(raw), &obj); err != nil {
				continue
			}
			name := jsonString(obj, jsonNameKeys)
			if name == "" {
				continue
			}
			rec := models.Recommendation{
				CompanyName:    name,
				BrokerName:     models.DefaultBrokerName,
				Recommendation: ExtractVerdict(jsonString(obj, jsonCallKeys)),
				CurrentPrice:   jsonNumber(obj, jsonPriceKeys),
				TargetPrice:    jsonNumber(obj, jsonTargetKeys),
				ReportingDate:  time.Now(),
			}
			if rec.TargetPrice == 0 && rec.CurrentPrice == 0 {
				continue
			}
			add(rec, false)
		}
	})
}

// parseContainers walks recommendation-looking containers (table rows, list
// items, and divs whose class hints at stock content) and extracts a full
// record from each. Containers whose text never mentions a verdict are noise
// and get skipped outright.
func (p *Parser) parseContainers(doc *goquery.Document, add func(models.Recommendation, bool)) {
	containers := doc.Find("tr, li, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return containerClassRe.MatchString(class)
	})

	containers.Each(func(_ int, container *goquery.Selection) {
		text := strings.TrimSpace(container.Text())
		if len(text) < 10 || len(text) > 2000 {
			return
		}
		if !containsVerdictKeyword(text) {
			return
		}

		company := ExtractCompanyName(container)
		if company == "" {
			return
		}

		current, target := ExtractPricesFromMarkup(container)
		if current == 0 || target == 0 {
			current, target = p.pricesFromNeighbours(container, current, target)
		}
		if target == 0 && current == 0 {
			current, target = ExtractPrices(text)
		}

		add(models.Recommendation{
			CompanyName:    company,
			BrokerName:     ExtractBrokerName(text),
			Recommendation: ExtractVerdict(text),
			TargetPrice:    target,
			CurrentPrice:   current,
			ReportingDate:  time.Now(),
		}, true)
	})
}

// pricesFromNeighbours re-runs text price extraction over the container, its
// parent, and the parent's direct div/span/td children, filling only the
// slots still missing. Listing pages often keep the prices in a sibling cell.
func (p *Parser) pricesFromNeighbours(container *goquery.Selection, current, target float64) (float64, float64) {
	scopes := container
	if parent := container.Parent(); parent.Length() > 0 {
		scopes = scopes.AddSelection(parent).AddSelection(parent.ChildrenFiltered("div, span, td"))
	}

	scopes.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		c, t := ExtractPrices(strings.TrimSpace(el.Text()))
		if current == 0 && c > 0 {
			current = c
		}
		if target == 0 && t > 0 {
			target = t
		}
		return current == 0 || target == 0
	})
	return current, target
}

func containsVerdictKeyword(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "BUY") ||
		strings.Contains(upper, "SELL") ||
		strings.Contains(upper, "HOLD")
}

// parseLinkContext starts from stock and company links and climbs up to three
// ancestors looking for surrounding text that carries a verdict. Prices are
// attached when the context has them but a verdict alone is enough.
func (p *Parser) parseLinkContext(doc *goquery.Document, add func(models.Recommendation, bool)) {
	links := doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return stockLinkRe.MatchString(href)
	})

	links.Each(func(_ int, link *goquery.Selection) {
		company := CleanCompanyName(strings.TrimSpace(link.Text()))
		if !IsValidCompanyName(company) {
			return
		}

		scope := link
		for i := 0; i < 3; i++ {
			parent := scope.Parent()
			if parent.Length() == 0 {
				break
			}
			scope = parent
			if len(strings.TrimSpace(scope.Text())) > 50 {
				break
			}
		}

		text := strings.TrimSpace(scope.Text())
		if !containsVerdictKeyword(text) {
			return
		}
		current, target := ExtractPrices(text)

		add(models.Recommendation{
			CompanyName:    company,
			BrokerName:     ExtractBrokerName(text),
			Recommendation: ExtractVerdict(text),
			TargetPrice:    target,
			CurrentPrice:   current,
			ReportingDate:  time.Now(),
		}, false)
	})
}

// parseText is the last resort, used only when the structured strategies came
// up empty: match loose verdict phrasings in the page's text, capped so a
// noisy page cannot flood the result set. Records from here carry no prices
// and the site-wide default broker.
func (p *Parser) parseText(doc *goquery.Document, add func(models.Recommendation, bool)) {
	text := doc.Text()
	count := 0

	for i, re := range textPatternRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if count >= maxTextRecommendations {
				return
			}

			company, verdict := m[1], m[2]
			if i == 1 {
				verdict, company = m[1], m[2]
			}

			add(models.Recommendation{
				CompanyName:    company,
				BrokerName:     models.DefaultBrokerName,
				Recommendation: ExtractVerdict(verdict),
				ReportingDate:  time.Now(),
			}, false)
			count++
		}
	}
}

func jsonString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func jsonNumber(obj map[string]any, keys []string) float64 {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if plausible(n) {
				return n
			}
		case string:
			if f, ok := parsePrice(n); ok && plausible(f) {
				return f
			}
		}
	}
	return 0
}

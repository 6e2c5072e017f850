package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/brokercalls/internal/models"
)

// invalidCompanyNames is a denylist of UI and navigation strings that the
// origin site scatters around recommendation containers.
var invalidCompanyNames = map[string]bool{
	"all stats": true, "view all": true, "read more": true, "click here": true,
	"see more": true, "home": true, "about": true, "contact": true,
	"login": true, "register": true, "search": true, "menu": true,
	"portfolio": true, "watchlist": true, "news": true, "research": true,
	"analysis": true, "market": true, "stock": true, "share": true,
	"price": true, "chart": true, "data": true, "report": true,
}

var nonCompanyLeadWords = map[string]bool{
	"the": true, "and": true, "or": true, "for": true, "with": true,
	"from": true, "to": true, "by": true, "at": true, "on": true, "in": true,
}

// knownBrokers lists regional brokerage houses matched by substring.
var knownBrokers = []string{
	"Motilal Oswal", "Prabhudas Lilladher", "Anand Rathi", "HDFC Securities",
	"ICICI Direct", "Sharekhan", "Kotak Securities", "Axis Securities",
	"Edelweiss", "YES Securities", "IIFL Securities", "Emkay Global",
	"Angel Broking", "Zerodha", "5paisa", "Upstox", "Religare Securities",
	"India Infoline", "SMC Global", "Geojit", "JM Financial", "LKP Securities",
	"Nirmal Bang", "Centrum Broking", "SBI Securities", "BOI AXA Investment",
	"IDBI Capital", "Ventura Securities", "Choice Broking", "Master Capital",
	"MoneyControl Research", "Equitymaster", "Dalal Street Investment",
}

var (
	hasLetterRe = regexp.MustCompile(`[a-zA-Z]`)
	digitRe     = regexp.MustCompile(`\d`)

	buyPrefixRe     = regexp.MustCompile(`(?i)^(?:Buy|Sell|Hold)\s+`)
	targetSuffixRe  = regexp.MustCompile(`(?i);\s*target\s+of\s+Rs\s*\d+.*$`)
	brokerSuffixRe  = regexp.MustCompile(`(?i):\s*[A-Za-z\s&\.]+$`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)

	companySuffixRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Ltd|Limited|Industries|Bank|Corp|Corporation|Financial|Services|Motors|Steel|Power|Energy|Pharma|Technologies))\b`)
	knownCompanyRe  = regexp.MustCompile(`\b(Reliance|TCS|Infosys|HDFC|ICICI|SBI|Wipro|HCL|Bharti|Maruti|Asian Paints|ITC|Hindustan Unilever|Bajaj|Mahindra|Tata)\b`)

	researchByRe    = regexp.MustCompile(`(?i)research by[:\s]+([A-Za-z\s&\.]+)`)
	trailingColonRe = regexp.MustCompile(`:\s*([A-Za-z\s&\.]+?)\s*$`)

	brokerPatternRes = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Securities|Capital|Broking|Investment|Financial|Research)\b`),
		regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?:Securities|Capital|Broking|Investment|Financial|Research)\b`),
		regexp.MustCompile(`\b([A-Z]{2,5})\s+(?:Securities|Capital|Broking|Investment|Financial|Research)\b`),
	}

	brokerKeywordRe = regexp.MustCompile(`(?i)\b(Securities|Capital|Wealth|Financial|Research|Advisors)\b`)
	legalEntityRe   = regexp.MustCompile(`(?i)\b(Ltd|Limited|Pvt|Private)\b`)
)

// IsValidCompanyName rejects strings that cannot plausibly be a listed
// company: wrong length, denylisted UI text, no letters, mostly digits, or a
// leading stopword. Checks are independent; the first failure rejects.
func IsValidCompanyName(name string) bool {
	if len(name) < 3 || len(name) > 50 {
		return false
	}
	if invalidCompanyNames[strings.ToLower(name)] {
		return false
	}
	if !hasLetterRe.MatchString(name) {
		return false
	}
	if len(digitRe.FindAllString(name, -1)) > len(name)/2 {
		return false
	}
	words := strings.Fields(strings.ToLower(name))
	if len(words) > 0 && nonCompanyLeadWords[words[0]] {
		return false
	}
	return true
}

// CleanCompanyName strips verdict prefixes and target/broker suffixes that
// headlines glue onto company names, then collapses whitespace.
func CleanCompanyName(name string) string {
	if name == "" {
		return ""
	}
	name = buyPrefixRe.ReplaceAllString(name, "")
	name = targetSuffixRe.ReplaceAllString(name, "")
	name = brokerSuffixRe.ReplaceAllString(name, "")
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(name, " "))
}

// ExtractCompanyName derives a company name from a markup fragment. Priority:
// stock-quote links, generic stock/company links, heading or bold text, then
// known-company and corporate-suffix regexes over the fragment's full text.
// Returns "" when nothing valid is found; the caller must drop the fragment.
func ExtractCompanyName(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	var found string
	sel.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		text := strings.TrimSpace(link.Text())
		if strings.Contains(href, "/stockpricequote/") && len(text) > 2 {
			if cleaned := CleanCompanyName(text); IsValidCompanyName(cleaned) {
				found = cleaned
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	sel.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		text := strings.TrimSpace(link.Text())
		if (strings.Contains(href, "/stocks/") || strings.Contains(href, "/company/")) && len(text) > 2 {
			if cleaned := CleanCompanyName(text); IsValidCompanyName(cleaned) {
				found = cleaned
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	sel.Find("b, strong, h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if cleaned := CleanCompanyName(strings.TrimSpace(el.Text())); IsValidCompanyName(cleaned) {
			found = cleaned
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	text := sel.Text()
	for _, re := range []*regexp.Regexp{companySuffixRe, knownCompanyRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if cleaned := CleanCompanyName(m[1]); IsValidCompanyName(cleaned) {
				return cleaned
			}
		}
	}

	return ""
}

// IsLikelyBrokerName accepts strings of broker-ish length that carry either a
// brokerage keyword or a legal entity suffix.
func IsLikelyBrokerName(name string) bool {
	if len(name) < 3 || len(name) > 30 {
		return false
	}
	return brokerKeywordRe.MatchString(name) || legalEntityRe.MatchString(name)
}

// ExtractBrokerName derives a broker name from free text. Priority: a
// "Research by NAME" phrase, a plausible name after a trailing colon, the
// known-broker list, then a brokerage-suffix pattern. Returns "" when nothing
// matches; the caller substitutes models.DefaultBrokerName.
func ExtractBrokerName(text string) string {
	if m := researchByRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := trailingColonRe.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if IsLikelyBrokerName(candidate) {
			return candidate
		}
	}

	lower := strings.ToLower(text)
	for _, broker := range knownBrokers {
		if strings.Contains(lower, strings.ToLower(broker)) {
			return broker
		}
	}

	for _, re := range brokerPatternRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := m[1]
			lowerName := strings.ToLower(name)
			if len(name) > 2 && lowerName != "the" && lowerName != "and" && lowerName != "ltd" && lowerName != "limited" {
				return name + " Securities"
			}
		}
	}

	return ""
}

// ExtractVerdict normalizes a call phrase to a verdict. Unrecognized calls
// (ACCUMULATE, REDUCE, anything else) deliberately map to BUY rather than an
// unknown category; callers and aggregates rely on this default.
func ExtractVerdict(text string) models.Verdict {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "BUY"):
		return models.VerdictBuy
	case strings.Contains(upper, "SELL"):
		return models.VerdictSell
	case strings.Contains(upper, "HOLD"):
		return models.VerdictHold
	}
	return models.VerdictBuy
}

package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Plausibility windows used to reject page furniture (years, IDs, percentages)
// that would otherwise parse as prices.
const (
	minPlausiblePrice = 10.0
	maxPlausiblePrice = 50000.0

	// Bare numeric tokens carry no currency hint, so they get a narrower window.
	minBarePrice = 100.0
	maxBarePrice = 20000.0

	// An adjacent pair of similar numbers is a stronger signal than a lone
	// token, so the pair rule gets the wide window back.
	minPairPrice = 50.0
	maxPairPrice = 50000.0
)

type priceSlot int

const (
	slotCurrent priceSlot = iota
	slotTarget
)

// textPriceRule anchors a single price slot to an explicit keyword phrase.
// Rules are tried in order and each fills its slot at most once; extending the
// extractor means appending a rule, not restructuring the cascade.
type textPriceRule struct {
	name string
	slot priceSlot
	re   *regexp.Regexp
}

const priceNum = `(\d+(?:,\d{3})*(?:\.\d+)?)`

var keywordPriceRules = []textPriceRule{
	{"target-of-rs", slotTarget, regexp.MustCompile(`(?i)target\s+of\s+Rs\.?\s*` + priceNum)},
	{"target-colon", slotTarget, regexp.MustCompile(`(?i)Target(?:\s*Price)?[:\s]*Rs\.?\s*` + priceNum)},
	{"tp-colon", slotTarget, regexp.MustCompile(`(?i)(?:TP|PT)[:\s]*Rs\.?\s*` + priceNum)},
	{"price-target-of", slotTarget, regexp.MustCompile(`(?i)price\s+target\s+of\s+Rs\.?\s*` + priceNum)},
	{"current-price", slotCurrent, regexp.MustCompile(`(?i)(?:Reco|Current|CMP)\s*Price[:\s]*Rs\.?\s*` + priceNum)},
	{"at-rs", slotCurrent, regexp.MustCompile(`(?i)(?:at|@)\s*Rs\.?\s*` + priceNum)},
	{"cmp-colon", slotCurrent, regexp.MustCompile(`(?i)CMP[:\s]*Rs\.?\s*` + priceNum)},
}

var (
	rangeRe      = regexp.MustCompile(`(?i)Rs\.?\s*` + priceNum + `\s*-\s*` + priceNum)
	bracketRe    = regexp.MustCompile(`\(` + priceNum + `[/\-]` + priceNum + `\)`)
	buyTargetRe  = regexp.MustCompile(`(?i)(?:buy|purchase)\s+(?:at\s+)?` + priceNum + `\s*,?\s*(?:target|tp)\s+` + priceNum)
	rsNumberRe   = regexp.MustCompile(`(?i)Rs\.?\s*` + priceNum)
	numberPairRe = regexp.MustCompile(`(\d{3,5})\s+(\d{3,5})`)
	bareNumberRe = regexp.MustCompile(`\b(\d{3,5})\b`)
	plainNumRe   = regexp.MustCompile(priceNum)
	bareDigitsRe = regexp.MustCompile(`^\d+(?:,\d{3})*(?:\.\d+)?$`)
)

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func plausible(v float64) bool {
	return v >= minPlausiblePrice && v <= maxPlausiblePrice
}

// ExtractPrices recovers a (current, target) price pair from free text.
// A returned 0 means "not found". The cascade fills each slot at most once:
// keyword-anchored rules first, then paired-number forms, then unanchored
// currency-prefixed numbers, finally bare numeric tokens. A later rule never
// overwrites an earlier match.
func ExtractPrices(text string) (current, target float64) {
	for _, rule := range keywordPriceRules {
		slot := &target
		if rule.slot == slotCurrent {
			slot = &current
		}
		if *slot != 0 {
			continue
		}
		if m := rule.re.FindStringSubmatch(text); m != nil {
			if v, ok := parsePrice(m[1]); ok {
				*slot = v
			}
		}
	}

	// Currency-prefixed range: min is the entry price, max the target.
	if current == 0 || target == 0 {
		if m := rangeRe.FindStringSubmatch(text); m != nil {
			p1, ok1 := parsePrice(m[1])
			p2, ok2 := parsePrice(m[2])
			if ok1 && ok2 {
				if current == 0 {
					current = min(p1, p2)
				}
				if target == 0 {
					target = max(p1, p2)
				}
			}
		}
	}

	// Parenthesized pair "(1234/1500)" or "(1234-1500)".
	if current == 0 || target == 0 {
		if m := bracketRe.FindStringSubmatch(text); m != nil {
			p1, ok1 := parsePrice(m[1])
			p2, ok2 := parsePrice(m[2])
			if ok1 && ok2 && plausible(p1) && plausible(p2) {
				if current == 0 {
					current = min(p1, p2)
				}
				if target == 0 {
					target = max(p1, p2)
				}
			}
		}
	}

	// "buy at 1500, target 1800" assigns slots directly, no reordering.
	if current == 0 || target == 0 {
		if m := buyTargetRe.FindStringSubmatch(text); m != nil {
			if v, ok := parsePrice(m[1]); ok && current == 0 {
				current = v
			}
			if v, ok := parsePrice(m[2]); ok && target == 0 {
				target = v
			}
		}
	}

	// Any remaining Rs-prefixed numbers, window-filtered and sorted ascending.
	if current == 0 || target == 0 {
		var prices []float64
		for _, m := range rsNumberRe.FindAllStringSubmatch(text, -1) {
			if v, ok := parsePrice(m[1]); ok && plausible(v) {
				prices = append(prices, v)
			}
		}
		sortFloats(prices)
		if len(prices) >= 2 {
			if current == 0 {
				current = prices[0]
			}
			if target == 0 {
				target = prices[len(prices)-1]
			}
		} else if len(prices) == 1 && target == 0 {
			target = prices[0]
		}
	}

	// Last resort: bare 3-5 digit tokens. Adjacent pairs first, accepted when
	// the second number sits within 50% of the first as written, then all
	// standalone numbers sorted ascending.
	if current == 0 || target == 0 {
		for _, m := range numberPairRe.FindAllStringSubmatch(text, -1) {
			p1, ok1 := parsePrice(m[1])
			p2, ok2 := parsePrice(m[2])
			if !ok1 || !ok2 || !pairPlausible(p1) || !pairPlausible(p2) {
				continue
			}
			if math.Abs(p2-p1)/p1 < 0.5 {
				if current == 0 {
					current = min(p1, p2)
				}
				if target == 0 {
					target = max(p1, p2)
				}
				break
			}
		}
	}

	if current == 0 || target == 0 {
		var prices []float64
		for _, m := range bareNumberRe.FindAllStringSubmatch(text, -1) {
			if v, ok := parsePrice(m[1]); ok && barePlausible(v) {
				prices = append(prices, v)
			}
		}
		if len(prices) >= 2 {
			sortFloats(prices)
			if current == 0 {
				current = prices[0]
			}
			if target == 0 {
				target = prices[len(prices)-1]
			}
		}
	}

	return current, target
}

func barePlausible(v float64) bool {
	return v >= minBarePrice && v <= maxBarePrice
}

func pairPlausible(v float64) bool {
	return v >= minPairPrice && v <= maxPairPrice
}

func sortFloats(s []float64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// ExtractPricesFromMarkup recovers prices from a container's markup before any
// free-text rule runs: price-bearing attributes, price-suggesting class names,
// table cells disambiguated by sibling context, and hidden form fields.
func ExtractPricesFromMarkup(sel *goquery.Selection) (current, target float64) {
	// Explicit data-price attributes.
	sel.Find("[data-price]").Each(func(_ int, el *goquery.Selection) {
		val, _ := el.Attr("data-price")
		if v, ok := parsePrice(val); ok && plausible(v) {
			if target == 0 {
				target = v
			} else if current == 0 {
				current = v
			}
		}
	})

	// Title attributes carrying a currency-prefixed number.
	sel.Find("[title]").Each(func(_ int, el *goquery.Selection) {
		title, _ := el.Attr("title")
		m := rsNumberRe.FindStringSubmatch(title)
		if m == nil {
			return
		}
		v, ok := parsePrice(m[1])
		if !ok || !plausible(v) {
			return
		}
		lower := strings.ToLower(title)
		if strings.Contains(lower, "target") && target == 0 {
			target = v
		} else if (strings.Contains(lower, "current") || strings.Contains(lower, "cmp")) && current == 0 {
			current = v
		}
	})

	// Elements whose class names suggest price semantics.
	sel.Find("[class*=price], [class*=target], [class*=current], [class*=cmp]").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		class, _ := el.Attr("class")
		classLower := strings.ToLower(class)
		textLower := strings.ToLower(text)
		for _, m := range plainNumRe.FindAllStringSubmatch(text, -1) {
			v, ok := parsePrice(m[1])
			if !ok || !plausible(v) {
				continue
			}
			switch {
			case strings.Contains(classLower, "target") || strings.Contains(textLower, "target"):
				if target == 0 {
					target = v
				}
			case strings.Contains(classLower, "current") || strings.Contains(textLower, "current") || strings.Contains(classLower, "cmp"):
				if current == 0 {
					current = v
				}
			default:
				if target == 0 {
					target = v
				} else if current == 0 {
					current = v
				}
			}
		}
	})

	// Bare numbers in table cells, disambiguated by sibling cell text.
	sel.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if !bareDigitsRe.MatchString(text) {
			return
		}
		v, ok := parsePrice(text)
		if !ok || !plausible(v) {
			return
		}
		context := strings.ToLower(siblingText(cell, 3))
		switch {
		case strings.Contains(context, "target") || strings.Contains(context, "tp"):
			if target == 0 {
				target = v
			}
		case strings.Contains(context, "current") || strings.Contains(context, "cmp") || strings.Contains(context, "price"):
			if current == 0 {
				current = v
			}
		default:
			if target == 0 {
				target = v
			} else if current == 0 {
				current = v
			}
		}
	})

	// Numeric span/div/strong/b elements, disambiguated by their own markup
	// and the enclosing element's text.
	sel.Find("span, div, strong, b").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if !bareDigitsRe.MatchString(text) {
			return
		}
		v, ok := parsePrice(text)
		if !ok || !plausible(v) {
			return
		}
		context := strings.ToLower(elementContext(el))
		switch {
		case strings.Contains(context, "target") || strings.Contains(context, "tp"):
			if target == 0 {
				target = v
			}
		case strings.Contains(context, "current") || strings.Contains(context, "cmp") || strings.Contains(context, "price"):
			if current == 0 {
				current = v
			}
		default:
			if target == 0 {
				target = v
			} else if current == 0 {
				current = v
			}
		}
	})

	// Hidden form fields named with price hints.
	sel.Find("input[type=hidden]").Each(func(_ int, el *goquery.Selection) {
		name, _ := el.Attr("name")
		value, _ := el.Attr("value")
		name = strings.ToLower(name)
		if !strings.Contains(name, "price") && !strings.Contains(name, "target") {
			return
		}
		v, ok := parsePrice(value)
		if !ok || !plausible(v) {
			return
		}
		switch {
		case strings.Contains(name, "target"):
			if target == 0 {
				target = v
			}
		case strings.Contains(name, "current") || strings.Contains(name, "cmp"):
			if current == 0 {
				current = v
			}
		}
	})

	return current, target
}

// siblingText gathers text from up to n siblings on either side of a cell.
func siblingText(cell *goquery.Selection, n int) string {
	var parts []string
	count := 0
	cell.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		parts = append(parts, s.Text())
		count++
		return count < n
	})
	count = 0
	cell.PrevAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		parts = append(parts, s.Text())
		count++
		return count < n
	})
	return strings.Join(parts, " ")
}

// elementContext joins an element's own attributes and text with its parent's.
func elementContext(el *goquery.Selection) string {
	class, _ := el.Attr("class")
	context := class + " " + el.Text()
	if parent := el.Parent(); parent.Length() > 0 {
		parentClass, _ := parent.Attr("class")
		context += " " + parentClass + " " + parent.Text()
	}
	return context
}

package scraper

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/models"
)

type stubPrices struct {
	calls int
	price float64
}

func (s *stubPrices) CurrentPrice(_ context.Context, _ string) float64 {
	s.calls++
	return s.price
}

func newTestParser(prices PriceLookup) *Parser {
	return NewParser(arbor.NewLogger(), prices)
}

func TestParseRecommendationContainer(t *testing.T) {
	html := `<html><body>
		<div class="recommendation-item">
			<a href="/stockpricequote/energy/reliance/RI">Reliance Industries</a>
			Buy Reliance Industries; target of Rs 3000, CMP Rs 2500 - Research by Motilal Oswal
		</div>
	</body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.CompanyName != "Reliance Industries" {
		t.Errorf("company = %q, want %q", rec.CompanyName, "Reliance Industries")
	}
	if rec.BrokerName != "Motilal Oswal" {
		t.Errorf("broker = %q, want %q", rec.BrokerName, "Motilal Oswal")
	}
	if rec.Recommendation != models.VerdictBuy {
		t.Errorf("verdict = %q, want BUY", rec.Recommendation)
	}
	if rec.TargetPrice != 3000 {
		t.Errorf("target = %v, want 3000", rec.TargetPrice)
	}
	if rec.CurrentPrice != 2500 {
		t.Errorf("current = %v, want 2500", rec.CurrentPrice)
	}
}

func TestParseScriptJSON(t *testing.T) {
	html := `<html><body>
		<script>var stockData = {"name": "Infosys", "targetPrice": 1800, "recommendation": "SELL"};</script>
	</body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.CompanyName != "Infosys" {
		t.Errorf("company = %q, want Infosys", rec.CompanyName)
	}
	if rec.Recommendation != models.VerdictSell {
		t.Errorf("verdict = %q, want SELL", rec.Recommendation)
	}
	if rec.TargetPrice != 1800 {
		t.Errorf("target = %v, want 1800", rec.TargetPrice)
	}
	if rec.BrokerName != models.DefaultBrokerName {
		t.Errorf("broker = %q, want default", rec.BrokerName)
	}
}

func TestParseSkipsContainersWithoutVerdict(t *testing.T) {
	// Company names and prices alone are not a call. A bare table row and a
	// class-hinted div both stay out of the results when no verdict appears.
	cases := map[string]string{
		"plain row": `<html><body><table>
			<tr><td><b>Infosys Ltd</b></td><td>Rs 1520</td></tr>
		</table></body></html>`,
		"hinted div": `<html><body>
			<div class="stock-row"><b>Infosys Ltd</b> quarterly results due, Rs 1520</div>
		</body></html>`,
	}

	parser := newTestParser(nil)
	for name, html := range cases {
		if records := parser.Parse(context.Background(), html); len(records) != 0 {
			t.Errorf("%s: got %d records, want 0", name, len(records))
		}
	}
}

func TestParseLinkContextRequiresVerdict(t *testing.T) {
	// Prices around a stock link are not enough on their own.
	html := `<html><body>
		<div><a href="/stockpricequote/auto/mahindra/MM">Mahindra</a> closed at Rs 1450 on strong volumes in a firm market</div>
	</body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}

func TestParseLinkContextPricelessVerdict(t *testing.T) {
	// A verdict near a company link produces a record even with no price in
	// sight, and /stocks/ links count as company links.
	html := `<html><body>
		<div><a href="/stocks/infosys-ltd">Infosys</a> rated Sell by several analysts after weak guidance</div>
	</body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.CompanyName != "Infosys" {
		t.Errorf("company = %q, want Infosys", rec.CompanyName)
	}
	if rec.Recommendation != models.VerdictSell {
		t.Errorf("verdict = %q, want SELL", rec.Recommendation)
	}
	if rec.CurrentPrice != 0 || rec.TargetPrice != 0 {
		t.Errorf("prices = %v/%v, want 0/0", rec.CurrentPrice, rec.TargetPrice)
	}
	if rec.BrokerName != models.DefaultBrokerName {
		t.Errorf("broker = %q, want default", rec.BrokerName)
	}
}

func TestParseDeduplicationFirstWins(t *testing.T) {
	// Same company and broker twice with different prices; only the
	// first-encountered record survives, price differences notwithstanding.
	html := `<html><body>
		<div class="stock-row">
			<a href="/stockpricequote/it/tcs/TCS">TCS</a>
			Buy TCS; target of Rs 4000, CMP Rs 3500 - Research by Sharekhan
		</div>
		<div class="stock-row">
			<a href="/stockpricequote/it/tcs/TCS">TCS</a>
			Buy TCS; target of Rs 4200, CMP Rs 3600 - Research by Sharekhan
		</div>
	</body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)

	matches := 0
	for _, rec := range records {
		if rec.CompanyName == "TCS" && rec.BrokerName == "Sharekhan" {
			matches++
			if rec.TargetPrice != 4000 {
				t.Errorf("target = %v, want first-seen 4000", rec.TargetPrice)
			}
		}
	}
	if matches != 1 {
		t.Errorf("got %d TCS/Sharekhan records, want 1", matches)
	}
}

func TestParseIdempotent(t *testing.T) {
	html := `<html><body>
		<div class="research-idea">
			<a href="/stockpricequote/banks/hdfc/HB">HDFC Bank</a>
			Hold HDFC Bank; target of Rs 1700, CMP Rs 1550 - Research by ICICI Direct
		</div>
	</body></html>`

	parser := newTestParser(nil)
	first := parser.Parse(context.Background(), html)
	second := parser.Parse(context.Background(), html)

	if len(first) != len(second) {
		t.Fatalf("record counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CompanyName != second[i].CompanyName ||
			first[i].BrokerName != second[i].BrokerName ||
			first[i].TargetPrice != second[i].TargetPrice ||
			first[i].CurrentPrice != second[i].CurrentPrice {
			t.Errorf("record %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseBackfillsMissingCurrentPrice(t *testing.T) {
	html := `<html><body>
		<div class="stock-item">
			<a href="/stockpricequote/energy/reliance/RI">Reliance Industries</a>
			Buy call - Research by Motilal Oswal
		</div>
	</body></html>`

	stub := &stubPrices{price: 2500}
	records := newTestParser(stub).Parse(context.Background(), html)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if stub.calls != 1 {
		t.Errorf("price lookup calls = %d, want exactly 1", stub.calls)
	}
	if records[0].CurrentPrice != 2500 {
		t.Errorf("current = %v, want backfilled 2500", records[0].CurrentPrice)
	}
}

func TestParseFindsPricesInSiblingCells(t *testing.T) {
	// Listing pages often split a call across cells: the name and verdict in
	// one, the prices in a sibling. The parent scan must pick those up before
	// the lookup fallback gets a chance.
	html := `<html><body>
		<div class="wrapper">
			<div class="stock-row">
				<a href="/stockpricequote/it/tcs/TCS">TCS</a>
				Buy TCS - Research by Sharekhan
			</div>
			<span>(CMP Rs 3500, Target Rs 4000)</span>
		</div>
	</body></html>`

	stub := &stubPrices{price: 9999}
	records := newTestParser(stub).Parse(context.Background(), html)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if stub.calls != 0 {
		t.Errorf("price lookup calls = %d, want 0", stub.calls)
	}
	if records[0].CurrentPrice != 3500 {
		t.Errorf("current = %v, want 3500 from sibling cell", records[0].CurrentPrice)
	}
	if records[0].TargetPrice != 4000 {
		t.Errorf("target = %v, want 4000 from sibling cell", records[0].TargetPrice)
	}
}

func TestParseTextFallbackWhenStructuredEmpty(t *testing.T) {
	html := `<html><body><p>Tata Motors - BUY</p></body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.CompanyName != "Tata Motors" {
		t.Errorf("company = %q, want Tata Motors", rec.CompanyName)
	}
	if rec.Recommendation != models.VerdictBuy {
		t.Errorf("verdict = %q, want BUY", rec.Recommendation)
	}
	if rec.BrokerName != models.DefaultBrokerName {
		t.Errorf("broker = %q, want default", rec.BrokerName)
	}
	if rec.CurrentPrice != 0 || rec.TargetPrice != 0 {
		t.Errorf("prices = %v/%v, want 0/0", rec.CurrentPrice, rec.TargetPrice)
	}
}

func TestParseTextSkippedWhenStructuredFound(t *testing.T) {
	// Loose page text stays out of the results once any structured strategy
	// has produced a record.
	html := `<html><body>
		<div class="recommendation-item">
			<a href="/stockpricequote/energy/reliance/RI">Reliance Industries</a>
			Buy Reliance Industries; target of Rs 3000, CMP Rs 2500 - Research by Motilal Oswal
		</div>
		<p>Wipro: SELL</p>
	</body></html>`

	records := newTestParser(nil).Parse(context.Background(), html)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].CompanyName != "Reliance Industries" {
		t.Errorf("company = %q, want Reliance Industries", records[0].CompanyName)
	}
}

func TestParseEmptyAndJunkInput(t *testing.T) {
	parser := newTestParser(nil)

	for _, html := range []string{"", "<html><body></body></html>", "not html at all"} {
		records := parser.Parse(context.Background(), html)
		if len(records) != 0 {
			t.Errorf("Parse(%q) = %d records, want 0", html, len(records))
		}
	}
}

package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/common"
)

func testConfig(base string) *common.QuotesConfig {
	return &common.QuotesConfig{
		SuggestURL:     base + "/suggest",
		LiveQuoteURL:   base + "/quote",
		PriceFeedURL:   base + "/feed",
		QuotePageURLs:  []string{base + "/page"},
		SuggestTimeout: 2 * time.Second,
		QuoteTimeout:   2 * time.Second,
		RateLimit:      100,
	}
}

func TestCurrentPriceViaSuggestAndLiveQuote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"pdt_dis_nm":"<b>Reliance Industries Ltd</b>","sc_id":"RI"}]`)
	})
	mux.HandleFunc("/quote/RI", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"pricecurrent":"2500.50"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), arbor.NewLogger())
	price := client.CurrentPrice(context.Background(), "Reliance Industries")

	assert.Equal(t, 2500.50, price)
}

func TestCurrentPriceViaPriceFeedSlug(t *testing.T) {
	// The price feed is keyed by the lowercased search term and must work
	// with the suggestion endpoint down entirely.
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/relianceindustries", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pricecurrent":"2600.40"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), arbor.NewLogger())
	price := client.CurrentPrice(context.Background(), "Reliance Industries")

	assert.Equal(t, 2600.40, price)
}

func TestCurrentPriceFallsBackToQuotePage(t *testing.T) {
	// The quote page is guessed from the hyphenated name slug, trying each
	// configured page prefix in order.
	mux := http.NewServeMux()
	mux.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/other/reliance-industries", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><span class="pcnspa">Rs 2,450.00</span></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	config := testConfig(srv.URL)
	config.QuotePageURLs = []string{srv.URL + "/page", srv.URL + "/other"}

	client := NewClient(config, arbor.NewLogger())
	price := client.CurrentPrice(context.Background(), "Reliance Industries")

	assert.Equal(t, 2450.00, price)
}

func TestCurrentPriceRejectsImplausibleValues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"pdt_dis_nm":"Reliance Industries","sc_id":"RI"}]`)
	})
	mux.HandleFunc("/quote/RI", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"lastPrice": 999999}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), arbor.NewLogger())
	price := client.CurrentPrice(context.Background(), "Reliance Industries")

	assert.Equal(t, 0.0, price)
}

func TestCurrentPriceNeverErrors(t *testing.T) {
	// Every endpoint 500s; the lookup must still come back with 0.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), arbor.NewLogger())
	assert.Equal(t, 0.0, client.CurrentPrice(context.Background(), "Reliance Industries"))
	assert.Equal(t, 0.0, client.CurrentPrice(context.Background(), ""))
}

func TestNameVariations(t *testing.T) {
	variations := nameVariations("Reliance Industries Limited")

	require.NotEmpty(t, variations)
	assert.Equal(t, "Reliance Industries Limited", variations[0])
	assert.Contains(t, variations, "RelianceIndustriesLimited")
	assert.Contains(t, variations, "Reliance Industries Ltd")
	assert.Contains(t, variations, "Reliance")

	// No duplicates regardless of case.
	seen := map[string]bool{}
	for _, v := range variations {
		lower := v
		require.False(t, seen[lower], "duplicate variation %q", v)
		seen[lower] = true
	}
}

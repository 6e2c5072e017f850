package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/models"
	"github.com/ternarybob/brokercalls/internal/services/rating"
)

// RecommendationSource produces the current recommendation set. Satisfied by
// the scraper service; tests substitute a stub.
type RecommendationSource interface {
	GetRecommendations(ctx context.Context) ([]models.Recommendation, error)
}

// RecommendationHandler serves the recommendation and aggregate routes. Every
// request triggers a fresh scrape; nothing is cached between requests.
type RecommendationHandler struct {
	source RecommendationSource
	logger arbor.ILogger
}

func NewRecommendationHandler(source RecommendationSource, logger arbor.ILogger) *RecommendationHandler {
	return &RecommendationHandler{
		source: source,
		logger: logger,
	}
}

// fetch runs one scrape and returns the filtered record set. Scrape failure
// maps to an empty set, never an error response.
func (h *RecommendationHandler) fetch(ctx context.Context) []models.Recommendation {
	records, err := h.source.GetRecommendations(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Scrape failed, serving empty recommendation set")
		return []models.Recommendation{}
	}
	return rating.FilterRecommendations(records)
}

// RecommendationsHandler returns the full scraped recommendation list.
func (h *RecommendationHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	records := h.fetch(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations":       records,
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
		"total_recommendations": len(records),
	})
}

// TopCompaniesHandler ranks companies by mean target price.
func (h *RecommendationHandler) TopCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	records := h.fetch(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"top_companies":            rating.TopCompanies(records),
		"timestamp":                time.Now().UTC().Format(time.RFC3339),
		"based_on_recommendations": len(records),
	})
}

// TopBrokersHandler ranks brokers by their best target price.
func (h *RecommendationHandler) TopBrokersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	records := h.fetch(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"top_brokers":              rating.TopBrokers(records),
		"timestamp":                time.Now().UTC().Format(time.RFC3339),
		"based_on_recommendations": len(records),
	})
}

// StatsHandler returns verdict counts and the mean target price.
func (h *RecommendationHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats := rating.Summarize(h.fetch(r.Context()))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total_recommendations": stats.TotalRecommendations,
		"buy_recommendations":   stats.BuyCount,
		"sell_recommendations":  stats.SellCount,
		"average_target_price":  stats.AvgTargetPrice,
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
	})
}

// CleanupHandler acknowledges a cleanup request. Nothing is persisted between
// requests, so there is nothing to clean; the route exists for operational
// tooling that expects it.
func (h *RecommendationHandler) CleanupHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Cleanup completed",
	})
}

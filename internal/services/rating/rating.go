package rating

import (
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/brokercalls/internal/models"
)

// DefaultLimit caps the top-companies and top-brokers leaderboards.
const DefaultLimit = 10

// Stats summarizes a recommendation set.
type Stats struct {
	TotalRecommendations int     `json:"total_recommendations"`
	BuyCount             int     `json:"buy_recommendations"`
	SellCount            int     `json:"sell_recommendations"`
	AvgTargetPrice       float64 `json:"average_target_price"`
}

// FilterRecommendations drops records that slipped through extraction with an
// unusable company name or an unknown verdict.
func FilterRecommendations(recs []models.Recommendation) []models.Recommendation {
	filtered := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		name := strings.TrimSpace(rec.CompanyName)
		if len(name) <= 2 {
			continue
		}
		switch rec.Recommendation {
		case models.VerdictBuy, models.VerdictSell, models.VerdictHold:
		default:
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// TopCompanies ranks companies by mean target price across their
// recommendations. Companies with no priced recommendation are excluded.
func TopCompanies(recs []models.Recommendation) []models.TopCompany {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	display := make(map[string]string)

	for _, rec := range recs {
		if rec.TargetPrice <= 0 {
			continue
		}
		key := strings.ToLower(rec.CompanyName)
		sums[key] += rec.TargetPrice
		counts[key]++
		if _, ok := display[key]; !ok {
			display[key] = rec.CompanyName
		}
	}

	companies := make([]models.TopCompany, 0, len(sums))
	for key, sum := range sums {
		companies = append(companies, models.TopCompany{
			CompanyName:    display[key],
			AvgTargetPrice: round2(sum / float64(counts[key])),
		})
	}

	sort.Slice(companies, func(i, j int) bool {
		return companies[i].AvgTargetPrice > companies[j].AvgTargetPrice
	})
	if len(companies) > DefaultLimit {
		companies = companies[:DefaultLimit]
	}
	for i := range companies {
		companies[i].Rank = i + 1
	}
	return companies
}

// TopBrokers ranks brokers by the highest target price they issued.
func TopBrokers(recs []models.Recommendation) []models.TopBroker {
	best := make(map[string]float64)
	display := make(map[string]string)

	for _, rec := range recs {
		if rec.TargetPrice <= 0 {
			continue
		}
		key := strings.ToLower(rec.BrokerName)
		if rec.TargetPrice > best[key] {
			best[key] = rec.TargetPrice
		}
		if _, ok := display[key]; !ok {
			display[key] = rec.BrokerName
		}
	}

	brokers := make([]models.TopBroker, 0, len(best))
	for key, price := range best {
		brokers = append(brokers, models.TopBroker{
			BrokerName:      display[key],
			BestTargetPrice: price,
		})
	}

	sort.Slice(brokers, func(i, j int) bool {
		return brokers[i].BestTargetPrice > brokers[j].BestTargetPrice
	})
	if len(brokers) > DefaultLimit {
		brokers = brokers[:DefaultLimit]
	}
	for i := range brokers {
		brokers[i].Rank = i + 1
	}
	return brokers
}

// Summarize computes aggregate stats. The average covers only priced
// recommendations and is rounded to two decimals.
func Summarize(recs []models.Recommendation) Stats {
	stats := Stats{TotalRecommendations: len(recs)}

	var sum float64
	priced := 0
	for _, rec := range recs {
		switch rec.Recommendation {
		case models.VerdictBuy:
			stats.BuyCount++
		case models.VerdictSell:
			stats.SellCount++
		}
		if rec.TargetPrice > 0 {
			sum += rec.TargetPrice
			priced++
		}
	}
	if priced > 0 {
		stats.AvgTargetPrice = round2(sum / float64(priced))
	}
	return stats
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

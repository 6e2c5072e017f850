package models

import (
	"strings"
	"time"
)

// Verdict is a broker's call on a security.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictSell Verdict = "SELL"
	VerdictHold Verdict = "HOLD"
)

// DefaultBrokerName is used when no broker can be attributed to a recommendation.
const DefaultBrokerName = "MoneyControl Research"

// Recommendation is a single broker stock recommendation extracted from the
// origin site. A zero price means "unknown", never "free".
type Recommendation struct {
	BrokerName     string    `json:"broker_name"`
	CompanyName    string    `json:"company_name"`
	Recommendation Verdict   `json:"recommendation"`
	TargetPrice    float64   `json:"target_price"`
	CurrentPrice   float64   `json:"current_price"`
	ReportingDate  time.Time `json:"reporting_date"`
}

// Key returns the deduplication identity for this recommendation. Prices and
// verdict are deliberately excluded: the first-seen record for a
// (company, broker) pair wins even if a later parse found better prices.
func (r *Recommendation) Key() string {
	return strings.ToLower(r.CompanyName) + "|" + strings.ToLower(r.BrokerName)
}

// TopCompany is a ranked company aggregate by mean target price.
type TopCompany struct {
	Rank           int     `json:"rank"`
	CompanyName    string  `json:"company_name"`
	AvgTargetPrice float64 `json:"avg_target_price"`
}

// TopBroker is a ranked broker aggregate by best target price.
type TopBroker struct {
	Rank            int     `json:"rank"`
	BrokerName      string  `json:"broker_name"`
	BestTargetPrice float64 `json:"best_target_price"`
}

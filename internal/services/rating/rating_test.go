package rating

import (
	"testing"

	"github.com/ternarybob/brokercalls/internal/models"
)

func rec(company, broker string, verdict models.Verdict, target float64) models.Recommendation {
	return models.Recommendation{
		CompanyName:    company,
		BrokerName:     broker,
		Recommendation: verdict,
		TargetPrice:    target,
	}
}

func TestFilterRecommendations(t *testing.T) {
	input := []models.Recommendation{
		rec("Reliance Industries", "Motilal Oswal", models.VerdictBuy, 3000),
		rec("", "Sharekhan", models.VerdictBuy, 100),
		rec("ab", "Sharekhan", models.VerdictBuy, 100),
		rec("Infosys", "Sharekhan", models.Verdict("MAYBE"), 1800),
		rec("TCS", "HDFC Securities", models.VerdictSell, 4000),
	}

	got := FilterRecommendations(input)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].CompanyName != "Reliance Industries" || got[1].CompanyName != "TCS" {
		t.Errorf("unexpected survivors: %+v", got)
	}
}

func TestTopCompanies(t *testing.T) {
	input := []models.Recommendation{
		rec("Reliance Industries", "Motilal Oswal", models.VerdictBuy, 3000),
		rec("Reliance Industries", "Sharekhan", models.VerdictBuy, 3200),
		rec("TCS", "HDFC Securities", models.VerdictBuy, 4000),
		rec("Unpriced Co", "Sharekhan", models.VerdictHold, 0),
	}

	got := TopCompanies(input)
	if len(got) != 2 {
		t.Fatalf("got %d companies, want 2", len(got))
	}
	if got[0].CompanyName != "TCS" || got[0].Rank != 1 || got[0].AvgTargetPrice != 4000 {
		t.Errorf("rank 1 = %+v, want TCS at 4000", got[0])
	}
	if got[1].CompanyName != "Reliance Industries" || got[1].AvgTargetPrice != 3100 {
		t.Errorf("rank 2 = %+v, want Reliance Industries at mean 3100", got[1])
	}
}

func TestTopCompaniesLimit(t *testing.T) {
	var input []models.Recommendation
	for i := 0; i < 15; i++ {
		input = append(input, rec(string(rune('A'+i))+" Industries", "Broker", models.VerdictBuy, float64(1000+i)))
	}

	got := TopCompanies(input)
	if len(got) != DefaultLimit {
		t.Fatalf("got %d companies, want %d", len(got), DefaultLimit)
	}
	for i, c := range got {
		if c.Rank != i+1 {
			t.Errorf("rank at %d = %d, want %d", i, c.Rank, i+1)
		}
	}
}

func TestTopBrokers(t *testing.T) {
	input := []models.Recommendation{
		rec("Reliance Industries", "Motilal Oswal", models.VerdictBuy, 3000),
		rec("TCS", "Motilal Oswal", models.VerdictBuy, 4000),
		rec("Infosys", "Sharekhan", models.VerdictBuy, 1800),
	}

	got := TopBrokers(input)
	if len(got) != 2 {
		t.Fatalf("got %d brokers, want 2", len(got))
	}
	if got[0].BrokerName != "Motilal Oswal" || got[0].BestTargetPrice != 4000 {
		t.Errorf("rank 1 = %+v, want Motilal Oswal at best 4000", got[0])
	}
	if got[1].BrokerName != "Sharekhan" || got[1].Rank != 2 {
		t.Errorf("rank 2 = %+v, want Sharekhan", got[1])
	}
}

func TestSummarize(t *testing.T) {
	input := []models.Recommendation{
		rec("Reliance Industries", "Motilal Oswal", models.VerdictBuy, 3000),
		rec("TCS", "Sharekhan", models.VerdictBuy, 4000),
		rec("Yes Bank", "Sharekhan", models.VerdictSell, 20),
		rec("HDFC Bank", "ICICI Direct", models.VerdictHold, 0),
	}

	got := Summarize(input)
	if got.TotalRecommendations != 4 {
		t.Errorf("total = %d, want 4", got.TotalRecommendations)
	}
	if got.BuyCount != 2 {
		t.Errorf("buy = %d, want 2", got.BuyCount)
	}
	if got.SellCount != 1 {
		t.Errorf("sell = %d, want 1", got.SellCount)
	}
	// Average over priced records only: (3000+4000+20)/3 rounded.
	if got.AvgTargetPrice != 2340.0 {
		t.Errorf("avg = %v, want 2340", got.AvgTargetPrice)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	if got.TotalRecommendations != 0 || got.AvgTargetPrice != 0 {
		t.Errorf("empty summary = %+v", got)
	}
}

package scraper

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/common"
	"github.com/ternarybob/brokercalls/internal/models"
)

// Strategy is one way of acquiring recommendation records from the origin
// site. Strategies are tried in order until one yields records.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Recommendation, error)
}

// Service runs the acquisition cascade. An exhausted cascade is not an error:
// an empty result set is a valid answer when the origin blocks every path.
type Service struct {
	strategies []Strategy
	logger     arbor.ILogger
}

// NewService wires the default cascade: headless browser first, fingerprinted
// HTTP as fallback.
func NewService(config *common.ScraperConfig, prices PriceLookup, logger arbor.ILogger) *Service {
	parser := NewParser(logger, prices)
	return &Service{
		strategies: []Strategy{
			NewBrowserStrategy(config, parser, logger),
			NewHTTPStrategy(config, parser, logger),
		},
		logger: logger,
	}
}

// NewServiceWithStrategies builds a service over an explicit strategy list.
func NewServiceWithStrategies(logger arbor.ILogger, strategies ...Strategy) *Service {
	return &Service{strategies: strategies, logger: logger}
}

// GetRecommendations walks the cascade and returns the first non-empty
// result. Strategy failures are logged and swallowed; when every strategy
// fails or comes back empty the caller gets an empty slice and no error.
func (s *Service) GetRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	for _, strategy := range s.strategies {
		records, err := strategy.Fetch(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("strategy", strategy.Name()).Msg("Acquisition strategy failed")
			continue
		}
		if len(records) > 0 {
			s.logger.Info().
				Str("strategy", strategy.Name()).
				Int("count", len(records)).
				Msg("Recommendations acquired")
			return records, nil
		}
		s.logger.Debug().Str("strategy", strategy.Name()).Msg("Strategy returned no records")
	}

	s.logger.Warn().Msg("All acquisition strategies exhausted, returning empty result")
	return []models.Recommendation{}, nil
}

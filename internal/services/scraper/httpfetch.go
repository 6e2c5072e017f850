package scraper

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/brokercalls/internal/common"
	"github.com/ternarybob/brokercalls/internal/httpclient"
	"github.com/ternarybob/brokercalls/internal/models"
)

// HTTPStrategy fetches the recommendation pages with a plain HTTP client,
// rotating browser fingerprints between attempts. It is the fallback when the
// headless browser is unavailable or comes back empty.
type HTTPStrategy struct {
	config *common.ScraperConfig
	parser *Parser
	logger arbor.ILogger
}

func NewHTTPStrategy(config *common.ScraperConfig, parser *Parser, logger arbor.ILogger) *HTTPStrategy {
	return &HTTPStrategy{
		config: config,
		parser: parser,
		logger: logger,
	}
}

func (s *HTTPStrategy) Name() string { return "http" }

const fingerprintProfiles = 2

// Fetch tries each fingerprint profile against every configured URL. A 403
// means the profile is burned, so the profile's remaining URLs are skipped —
// but records already parsed from its earlier URLs are kept. The next profile
// starts fresh with a new identity only when the burned one found nothing.
func (s *HTTPStrategy) Fetch(ctx context.Context) ([]models.Recommendation, error) {
	var lastErr error

	for profile := 0; profile < fingerprintProfiles; profile++ {
		userAgent := httpclient.RandomChromeUserAgent()
		client := httpclient.NewOriginClient(s.config.RequestTimeout, userAgent)

		s.logger.Debug().
			Int("profile", profile+1).
			Str("user_agent", userAgent).
			Msg("Starting HTTP fetch profile")

		var records []models.Recommendation
		seen := make(map[string]bool)

		for i, url := range s.config.HTTPURLs {
			if i > 0 {
				s.backoff(ctx)
			}

			resp, err := client.R().SetContext(ctx).Get(url)
			if err != nil {
				s.logger.Warn().Err(err).Str("url", url).Msg("HTTP fetch failed")
				lastErr = err
				continue
			}

			if resp.StatusCode() == http.StatusForbidden {
				s.logger.Warn().Str("url", url).Int("profile", profile+1).Msg("Fingerprint rejected with 403, rotating profile")
				break
			}
			if resp.StatusCode() != http.StatusOK {
				s.logger.Warn().Int("status", resp.StatusCode()).Str("url", url).Msg("Unexpected status from origin")
				continue
			}

			for _, rec := range s.parser.Parse(ctx, resp.String()) {
				key := rec.Key()
				if seen[key] {
					continue
				}
				seen[key] = true
				records = append(records, rec)
			}
		}

		if len(records) > 0 {
			s.logger.Info().Int("count", len(records)).Int("profile", profile+1).Msg("HTTP fetch succeeded")
			return records, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// backoff waits a random 2-4s between page requests so the request cadence
// does not look scripted.
func (s *HTTPStrategy) backoff(ctx context.Context) {
	min := s.config.MinAttemptDelay
	max := s.config.MaxAttemptDelay
	delay := min
	if max > min {
		delay = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

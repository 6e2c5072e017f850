package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Auth        AuthConfig    `toml:"auth"`
	Logging     LoggingConfig `toml:"logging"`
	Scraper     ScraperConfig `toml:"scraper"`
	Quotes      QuotesConfig  `toml:"quotes"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

// AuthConfig holds the API key gate configuration. Every route except /health
// requires the X-Api-Key header to match APIKey.
type AuthConfig struct {
	APIKey string `toml:"api_key" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// ScraperConfig contains acquisition cascade configuration
type ScraperConfig struct {
	BaseURL            string        `toml:"base_url" validate:"required,url"` // Origin listing page
	BrowserURLs        []string      `toml:"browser_urls"`                     // Candidate URLs for the rendered-browser strategy
	HTTPURLs           []string      `toml:"http_urls"`                        // Candidate URLs for the direct-HTTP strategy
	Headless           bool          `toml:"headless"`                         // Run Chrome headless
	NoSandbox          bool          `toml:"no_sandbox"`                       // Required inside containers
	PageTimeout        time.Duration `toml:"page_timeout"`                     // Per-URL navigation timeout
	RequestTimeout     time.Duration `toml:"request_timeout"`                  // Direct-HTTP per-request timeout
	RecordTarget       int           `toml:"record_target"`                    // Soft target before the browser strategy stops visiting URLs
	UserAgentRotation  bool          `toml:"user_agent_rotation"`              // Rotate user agents per header profile
	MinAttemptDelay    time.Duration `toml:"min_attempt_delay"`                // Lower bound of the randomized inter-attempt backoff
	MaxAttemptDelay    time.Duration `toml:"max_attempt_delay"`                // Upper bound of the randomized inter-attempt backoff
	JavaScriptWaitTime time.Duration `toml:"javascript_wait_time"`             // Wait for async content after navigation
}

// QuotesConfig contains secondary price lookup configuration
type QuotesConfig struct {
	SuggestURL     string        `toml:"suggest_url"`     // Autosuggest search endpoint
	LiveQuoteURL   string        `toml:"live_quote_url"`  // Live quote endpoint keyed by security id
	PriceFeedURL   string        `toml:"price_feed_url"`  // Quote-by-slug price feed endpoint
	QuotePageURLs  []string      `toml:"quote_page_urls"` // Quote page URL prefixes tried for slug scraping
	SuggestTimeout time.Duration `toml:"suggest_timeout"` // Suggestion endpoint timeout
	QuoteTimeout   time.Duration `toml:"quote_timeout"`   // Quote endpoint timeout
	RateLimit      int           `toml:"rate_limit"`      // Requests per second against quote endpoints
}

// NewDefaultConfig creates a configuration with default values.
// Endpoint URLs are hardcoded here; only user-facing settings belong in
// brokercalls.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Auth: AuthConfig{
			APIKey: "dev-api-key-123", // Override in production via BROKERCALLS_API_KEY
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Scraper: ScraperConfig{
			BaseURL: "https://www.moneycontrol.com/markets/stock-ideas/",
			BrowserURLs: []string{
				"https://www.moneycontrol.com/markets/stock-ideas/",
				"https://www.moneycontrol.com/markets/stock-ideas/research/",
				"https://www.moneycontrol.com/news/business/stocks/",
				"https://www.moneycontrol.com/india/stockmarket/stocks/research/",
			},
			HTTPURLs: []string{
				"https://www.moneycontrol.com/markets/stock-ideas/",
				"https://www.moneycontrol.com/markets/stock-ideas/research/",
				"https://www.moneycontrol.com/markets/stock-ideas/research/",
			},
			Headless:           true,
			NoSandbox:          true,
			PageTimeout:        15 * time.Second,
			RequestTimeout:     10 * time.Second,
			RecordTarget:       10,
			UserAgentRotation:  true,
			MinAttemptDelay:    2 * time.Second,
			MaxAttemptDelay:    4 * time.Second,
			JavaScriptWaitTime: 3 * time.Second,
		},
		Quotes: QuotesConfig{
			SuggestURL:     "https://www.moneycontrol.com/mccode/common/autosuggestion_solr.php",
			LiveQuoteURL:   "https://www.moneycontrol.com/mccode/common/getlivejson.php",
			PriceFeedURL: "https://priceapi.moneycontrol.com/pricefeed/notapplicable/inr",
			QuotePageURLs: []string{
				"https://www.moneycontrol.com/india/stockpricequote",
				"https://www.moneycontrol.com/stocks/marketstats",
				"https://www.moneycontrol.com/stocksmarketsindia",
			},
			SuggestTimeout: 8 * time.Second,
			QuoteTimeout:   5 * time.Second,
			RateLimit:      5,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path loads defaults plus env overrides only.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BROKERCALLS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("BROKERCALLS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("BROKERCALLS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if apiKey := os.Getenv("BROKERCALLS_API_KEY"); apiKey != "" {
		config.Auth.APIKey = apiKey
	}

	if level := os.Getenv("BROKERCALLS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if baseURL := os.Getenv("BROKERCALLS_SCRAPER_BASE_URL"); baseURL != "" {
		config.Scraper.BaseURL = baseURL
	}
	if headless := os.Getenv("BROKERCALLS_SCRAPER_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Scraper.Headless = b
		}
	}
	if timeout := os.Getenv("BROKERCALLS_SCRAPER_PAGE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Scraper.PageTimeout = d
		}
	}
}

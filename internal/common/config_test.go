package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", config.Server.Port)
	}
	if config.Auth.APIKey == "" {
		t.Error("default API key must not be empty")
	}
	if len(config.Scraper.BrowserURLs) != 4 {
		t.Errorf("browser URLs = %d, want 4", len(config.Scraper.BrowserURLs))
	}
	if len(config.Scraper.HTTPURLs) != 3 {
		t.Errorf("http URLs = %d, want 3", len(config.Scraper.HTTPURLs))
	}
	if config.Scraper.RecordTarget != 10 {
		t.Errorf("record target = %d, want 10", config.Scraper.RecordTarget)
	}
	if config.Scraper.MinAttemptDelay >= config.Scraper.MaxAttemptDelay {
		t.Error("min attempt delay must be below max")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brokercalls.toml")
	content := `
[server]
port = 9090
host = "0.0.0.0"

[auth]
api_key = "file-key"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 from file", config.Server.Port)
	}
	if config.Auth.APIKey != "file-key" {
		t.Errorf("api key = %q, want file-key", config.Auth.APIKey)
	}
	// Defaults survive for sections the file omits.
	if config.Scraper.BaseURL == "" {
		t.Error("scraper base URL default lost")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/does/not/exist.toml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BROKERCALLS_SERVER_PORT", "7777")
	t.Setenv("BROKERCALLS_API_KEY", "env-key")

	config, err := LoadFromFile("")
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if config.Server.Port != 7777 {
		t.Errorf("port = %d, want env override 7777", config.Server.Port)
	}
	if config.Auth.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", config.Auth.APIKey)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 6060, "127.0.0.1")
	if config.Server.Port != 6060 || config.Server.Host != "127.0.0.1" {
		t.Errorf("flag overrides not applied: %+v", config.Server)
	}

	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 6060 || config.Server.Host != "127.0.0.1" {
		t.Error("zero-value flags must not clobber existing values")
	}
}

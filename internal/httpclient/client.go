package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// NewOriginClient creates a resty client for scraping the origin site.
// The transport is wrapped with the Cloudflare bypass round tripper and a
// fresh cookie jar so each acquisition attempt looks like a new visitor.
func NewOriginClient(timeout time.Duration, userAgent string) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)

	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}

	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	return client
}

// RandomChromeUserAgent returns a random Chrome user agent string for
// fingerprint rotation.
func RandomChromeUserAgent() string {
	if ua := browser.Chrome(); ua != "" {
		return ua
	}
	// fake-useragent falls back to remote data on a cold cache; keep a static
	// fallback so rotation never yields an empty header
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
}

package geocode

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/planora/provider-discovery/internal/resilience"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// fastRetry keeps retry delays negligible in tests.
func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
		OnRetry:        func(int, error) {},
	}
}

// newTestGeocoder starts a server running handler and returns a geocoder
// pointed at it.
func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *geocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &geocoder{
		apiKey:     "test-key",
		baseURL:    srv.URL,
		httpClient: srv.Client(),
		limiter:    newTestLimiter(),
		timeout:    time.Second,
		retry:      fastRetry(),
		fallback:   DefaultFallback,
	}
}

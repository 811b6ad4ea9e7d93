// Package geocode resolves free-text location descriptions to coordinates
// via the Google Geocoding API, substituting a fixed fallback location when
// the upstream cannot answer.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/internal/resilience"
)

// Client resolves location descriptions. Resolve never fails: upstream
// problems yield the fallback location, tagged with model.LocationSourceFallback.
type Client interface {
	Resolve(ctx context.Context, description string) model.ResolvedLocation
}

// Fallback is the location substituted when geocoding fails.
type Fallback struct {
	Coordinates model.Coordinates
	Address     string
}

// DefaultFallback is San Francisco, CA.
var DefaultFallback = Fallback{
	Coordinates: model.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
	Address:     "San Francisco, CA, USA (fallback location)",
}

// Location returns the fallback as a ResolvedLocation.
func (f Fallback) Location() model.ResolvedLocation {
	return model.ResolvedLocation{
		Coordinates:      f.Coordinates,
		FormattedAddress: f.Address,
		Source:           model.LocationSourceFallback,
	}
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithBaseURL overrides the Geocoding API endpoint.
func WithBaseURL(url string) Option {
	return func(g *geocoder) {
		g.baseURL = url
	}
}

// WithRateLimit sets the requests-per-second limit for upstream calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *geocoder) {
		g.retry = cfg
	}
}

// WithFallback overrides the fallback location.
func WithFallback(f Fallback) Option {
	return func(g *geocoder) {
		g.fallback = f
	}
}

type geocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	retry      resilience.RetryConfig
	fallback   Fallback
}

// NewClient creates a geocoding Client backed by the Google Geocoding API.
func NewClient(apiKey string, opts ...Option) Client {
	g := &geocoder{
		apiKey:     apiKey,
		baseURL:    googleGeocodeURL,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(50, 50),
		timeout:    10 * time.Second,
		retry:      resilience.DefaultRetryConfig().WithLogging("geocoder", "resolve"),
		fallback:   DefaultFallback,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve geocodes description. Any failure (network error, non-200 status,
// non-OK upstream status, empty results, unparsable body) returns the
// fallback location and logs why.
func (g *geocoder) Resolve(ctx context.Context, description string) model.ResolvedLocation {
	description = strings.TrimSpace(description)
	if description == "" {
		zap.L().Warn("geocode: empty description, using fallback location")
		return g.fallback.Location()
	}

	loc, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*model.ResolvedLocation, error) {
		return g.geocodeGoogle(ctx, description)
	})
	if err != nil {
		zap.L().Warn("geocode: resolution failed, using fallback location",
			zap.String("description", description),
			zap.String("fallback", g.fallback.Address),
			zap.Error(err),
		)
		return g.fallback.Location()
	}

	zap.L().Debug("geocode: resolved",
		zap.String("description", description),
		zap.String("address", loc.FormattedAddress),
		zap.Float64("lat", loc.Coordinates.Latitude),
		zap.Float64("lng", loc.Coordinates.Longitude),
	)
	return *loc
}

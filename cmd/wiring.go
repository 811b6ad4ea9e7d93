package main

import (
	"net/http"
	"time"

	"github.com/planora/provider-discovery/internal/config"
	"github.com/planora/provider-discovery/internal/discovery"
	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/internal/resilience"
	"github.com/planora/provider-discovery/pkg/geocode"
	"github.com/planora/provider-discovery/pkg/google"
	"github.com/planora/provider-discovery/pkg/iplocate"
)

func retryPolicy(c config.RetryConfig) resilience.RetryConfig {
	return resilience.FromRetryConfig(c.MaxAttempts, c.InitialBackoffMs, c.MaxBackoffMs, c.Multiplier, c.JitterFraction)
}

func newGeocoder(c *config.Config) geocode.Client {
	return geocode.NewClient(c.Google.APIKey,
		geocode.WithBaseURL(c.Google.GeocodeURL),
		geocode.WithRateLimit(c.Geocode.RateLimit),
		geocode.WithTimeout(c.Geocode.GeocodeTimeout()),
		geocode.WithRetry(retryPolicy(c.Retry).WithLogging("geocoder", "resolve")),
		geocode.WithFallback(geocode.Fallback{
			Coordinates: model.Coordinates{Latitude: c.Geocode.Fallback.Lat, Longitude: c.Geocode.Fallback.Lng},
			Address:     c.Geocode.Fallback.Address,
		}),
	)
}

func newPlacesClient(c *config.Config) google.Client {
	return google.NewClient(c.Google.APIKey,
		google.WithBaseURL(c.Google.PlacesBaseURL),
		google.WithTimeout(c.Places.SearchTimeout()),
		google.WithRetry(retryPolicy(c.Retry)),
	)
}

// newService builds the discovery service from configuration.
func newService(c *config.Config) *discovery.Service {
	return discovery.NewService(newGeocoder(c), newPlacesClient(c),
		discovery.WithRadiusMeters(c.Places.RadiusMeters),
		discovery.WithMaxResults(c.Places.MaxResults),
		discovery.WithTopK(c.Ranking.TopK),
		// The geocoder bounds each attempt itself; the outer budget covers retries.
		discovery.WithGeocodeTimeout(c.Geocode.GeocodeTimeout()*time.Duration(max(c.Retry.MaxAttempts, 1))),
		discovery.WithSearchTimeout(c.Places.SearchTimeout()*time.Duration(max(c.Retry.MaxAttempts, 1))),
	)
}

func newIPLocator(c *config.Config) iplocate.Client {
	return iplocate.NewClient(
		iplocate.WithURL(c.IPLocate.URL),
		iplocate.WithToken(c.IPLocate.Token),
		iplocate.WithHTTPClient(&http.Client{Timeout: time.Duration(c.IPLocate.TimeoutSecs) * time.Second}),
		iplocate.WithRetry(retryPolicy(c.Retry).WithLogging("ipinfo", "locate")),
	)
}

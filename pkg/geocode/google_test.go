package geocode

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/internal/resilience"
)

func TestGoogleGeocode_OK(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Golden Gate Park", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 37.7694, "lng": -122.4862},
					"location_type": "GEOMETRIC_CENTER"
				},
				"formatted_address": "Golden Gate Park, San Francisco, CA, USA"
			}]
		}`)
	})

	loc, err := g.geocodeGoogle(context.Background(), "Golden Gate Park")
	require.NoError(t, err)
	assert.InDelta(t, 37.7694, loc.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, -122.4862, loc.Coordinates.Longitude, 1e-9)
	assert.Equal(t, "Golden Gate Park, San Francisco, CA, USA", loc.FormattedAddress)
	assert.Equal(t, model.LocationSourceResolved, loc.Source)
}

func TestGoogleGeocode_MissingFormattedAddressUsesDescription(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OK","results":[{"geometry":{"location":{"lat":1,"lng":2}}}]}`)
	})

	loc, err := g.geocodeGoogle(context.Background(), "somewhere")
	require.NoError(t, err)
	assert.Equal(t, "somewhere", loc.FormattedAddress)
}

func TestGoogleGeocode_ZeroResults(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ZERO_RESULTS","results":[]}`)
	})

	_, err := g.geocodeGoogle(context.Background(), "xyzzy")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.False(t, resilience.IsTransient(err))
}

func TestGoogleGeocode_OKButNoGeometry(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OK","results":[{"formatted_address":"x"}]}`)
	})

	_, err := g.geocodeGoogle(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestGoogleGeocode_RequestDenied(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`)
	})

	_, err := g.geocodeGoogle(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.False(t, resilience.IsTransient(err))
}

func TestGoogleGeocode_OverQueryLimitIsTransient(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OVER_QUERY_LIMIT","results":[]}`)
	})

	_, err := g.geocodeGoogle(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGoogleGeocode_HTTPStatus(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := g.geocodeGoogle(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGoogleGeocode_MalformedJSON(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := g.geocodeGoogle(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestGoogleGeocode_NoAPIKey(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	})
	g.apiKey = ""

	_, err := g.geocodeGoogle(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
	assert.Equal(t, int32(0), calls.Load())
}

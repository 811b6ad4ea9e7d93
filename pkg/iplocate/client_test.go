package iplocate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/provider-discovery/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	retry := resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, OnRetry: func(int, error) {}}
	return NewClient(append([]Option{WithURL(srv.URL), WithRetry(retry)}, opts...)...)
}

func TestLocate_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"ip":"8.8.8.8","loc":"40.7128,-74.0060","city":"New York","region":"New York","country":"US"}`)
	}, WithToken("tok"))

	loc, err := c.Locate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 40.7128, loc.Lat, 1e-9)
	assert.InDelta(t, -74.0060, loc.Lng, 1e-9)
	assert.Equal(t, "New York", loc.City)
	assert.Equal(t, "US", loc.Country)
}

func TestLocate_MissingLocUsesDefault(t *testing.T) {
	for _, body := range []string{`{"city":"Somewhere"}`, `{"loc":"garbage"}`, `{"loc":"1.0,x"}`} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})

		loc, err := c.Locate(context.Background())
		require.NoError(t, err, body)
		assert.Equal(t, DefaultLocation, *loc, body)
	}
}

func TestLocate_StatusError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Locate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(2), calls.Load())
}

func TestLocate_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})

	_, err := c.Locate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestParseLoc(t *testing.T) {
	lat, lng, ok := parseLoc(" 51.5 , -0.12 ")
	assert.True(t, ok)
	assert.InDelta(t, 51.5, lat, 1e-9)
	assert.InDelta(t, -0.12, lng, 1e-9)

	_, _, ok = parseLoc("")
	assert.False(t, ok)
}

package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/provider-discovery/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
		OnRetry:        func(int, error) {},
	}
}

func ptr[T any](v T) *T { return &v }

func TestSearchNearby_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchNearby", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.rating")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.reviews")

		var body nearbySearchBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"concert_hall", "karaoke"}, body.IncludedTypes)
		assert.Equal(t, 15, body.MaxResultCount)
		assert.InDelta(t, 15000, body.LocationRestriction.Circle.Radius, 0.001)
		assert.InDelta(t, 37.7749, body.LocationRestriction.Circle.Center.Latitude, 1e-9)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Places: []Place{
				{
					DisplayName:     &LocalizedText{Text: "The Fillmore"},
					Rating:          ptr(4.7),
					UserRatingCount: ptr(5120),
					Types:           []string{"concert_hall", "event_venue"},
					Location:        &LatLng{Latitude: 37.7840, Longitude: -122.4330},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	resp, err := client.SearchNearby(context.Background(), NearbySearchRequest{
		Center:        LatLng{Latitude: 37.7749, Longitude: -122.4194},
		IncludedTypes: []string{"concert_hall", "karaoke"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "The Fillmore", resp.Places[0].DisplayName.Text)
	require.NotNil(t, resp.Places[0].Rating)
	assert.InDelta(t, 4.7, *resp.Places[0].Rating, 0.001)
	assert.Equal(t, 5120, *resp.Places[0].UserRatingCount)
}

func TestSearchText_SendsQueryAndBias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchText", r.URL.Path)

		var body textSearchBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "balloon rental", body.TextQuery)
		assert.Equal(t, 7, body.MaxResultCount)
		assert.InDelta(t, 2000, body.LocationBias.Circle.Radius, 0.001)
		assert.InDelta(t, 51.5, body.LocationBias.Circle.Center.Latitude, 1e-9)

		_, _ = w.Write([]byte(`{"places":[{"displayName":{"text":"Party Co"},"rating":4.1}]}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	resp, err := client.SearchText(context.Background(), TextSearchRequest{
		Query:        "balloon rental",
		LocationBias: LatLng{Latitude: 51.5, Longitude: -0.12},
		RadiusMeters: 2000,
		MaxResults:   7,
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Nil(t, resp.Places[0].UserRatingCount)
	assert.Nil(t, resp.Places[0].Location)
}

func TestSearch_EmptyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	resp, err := client.SearchText(context.Background(), TextSearchRequest{Query: "nothing"})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestSearch_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	resp, err := client.SearchNearby(context.Background(), NearbySearchRequest{})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrSearchUnavailable))
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load())

	var se *SearchError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "search_nearby", se.Op)
	assert.Contains(t, se.Snippet, "invalid API key")
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"places":[{"rating":3.5}]}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	resp, err := client.SearchNearby(context.Background(), NearbySearchRequest{})

	require.NoError(t, err)
	assert.Len(t, resp.Places, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_TransientExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	_, err := client.SearchText(context.Background(), TextSearchRequest{Query: "q"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_MalformedBody(t *testing.T) {
	var calls atomic.Int32
	long := "<html>" + strings.Repeat("x", 500) + "</html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	_, err := client.SearchNearby(context.Background(), NearbySearchRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "malformed bodies are not retried")

	var se *SearchError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Malformed)
	assert.True(t, strings.HasPrefix(se.Snippet, "<html>"))
	assert.LessOrEqual(t, len(se.Snippet), snippetLimit+3)
}

func TestSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := fastRetry()
	cfg.MaxAttempts = 2
	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(cfg), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := client.SearchNearby(context.Background(), NearbySearchRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	resp, err := client.SearchText(ctx, TextSearchRequest{Query: "q"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet([]byte("  short \n")))

	long := strings.Repeat("é", 150) // 300 bytes
	s := Snippet([]byte(long))
	assert.True(t, strings.HasSuffix(s, "..."))
	assert.LessOrEqual(t, len(s), snippetLimit+3)
}

func TestAutocomplete_SendsInputAndBias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:autocomplete", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "suggestions.placePrediction.placeId")
		assert.NotContains(t, r.Header.Get("X-Goog-FieldMask"), "places.rating")

		var body autocompleteBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "brookl", body.Input)
		assert.Equal(t, "en", body.LanguageCode)
		require.NotNil(t, body.LocationBias)
		assert.InDelta(t, 40.7, body.LocationBias.Circle.Center.Latitude, 1e-9)
		assert.InDelta(t, 5000, body.LocationBias.Circle.Radius, 0.001)

		_, _ = w.Write([]byte(`{"suggestions":[
			{"placePrediction":{"placeId":"abc","text":{"text":"Brooklyn, NY, USA"},
				"structuredFormat":{"mainText":{"text":"Brooklyn"},"secondaryText":{"text":"NY, USA"}}}},
			{"queryPrediction":{"text":{"text":"brooklyn bridge"}}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	resp, err := client.Autocomplete(context.Background(), AutocompleteRequest{
		Input:        "brookl",
		LocationBias: &LatLng{Latitude: 40.7, Longitude: -74},
		RadiusMeters: 5000,
	})

	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 2)
	pred := resp.Suggestions[0].PlacePrediction
	require.NotNil(t, pred)
	assert.Equal(t, "abc", pred.PlaceID)
	assert.Equal(t, "Brooklyn, NY, USA", pred.Text.Text)
	assert.Equal(t, "Brooklyn", pred.StructuredFormat.MainText.Text)
	assert.Equal(t, "NY, USA", pred.StructuredFormat.SecondaryText.Text)
	assert.Nil(t, resp.Suggestions[1].PlacePrediction)
}

func TestAutocomplete_OmitsBiasWithoutLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "locationBias")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	resp, err := client.Autocomplete(context.Background(), AutocompleteRequest{Input: "pa"})

	require.NoError(t, err)
	assert.Empty(t, resp.Suggestions)
}

func TestAutocomplete_DoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRetry(fastRetry()))
	_, err := client.Autocomplete(context.Background(), AutocompleteRequest{Input: "pa"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Equal(t, int32(1), calls.Load())

	var se *SearchError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "autocomplete", se.Op)
}

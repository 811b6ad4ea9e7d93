// Package google is a client for the Google Places API (New) nearby search,
// text search and autocomplete endpoints.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/planora/provider-discovery/internal/resilience"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Search defaults. MaxResults is larger than the final response size so the
// ranking stage has a wider pool to choose from.
const (
	DefaultRadiusMeters = 15000
	DefaultMaxResults   = 15
)

// fieldMask lists exactly the place fields the normalizer reads.
var fieldMask = strings.Join([]string{
	"places.displayName",
	"places.rating",
	"places.formattedAddress",
	"places.internationalPhoneNumber",
	"places.nationalPhoneNumber",
	"places.websiteUri",
	"places.types",
	"places.userRatingCount",
	"places.location",
	"places.reviews",
}, ",")

var autocompleteFieldMask = strings.Join([]string{
	"suggestions.placePrediction.placeId",
	"suggestions.placePrediction.text",
	"suggestions.placePrediction.structuredFormat",
}, ",")

// Client performs Google Places API searches.
type Client interface {
	SearchNearby(ctx context.Context, req NearbySearchRequest) (*SearchResponse, error)
	SearchText(ctx context.Context, req TextSearchRequest) (*SearchResponse, error)
	Autocomplete(ctx context.Context, req AutocompleteRequest) (*AutocompleteResponse, error)
}

// LatLng is a Places API coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NearbySearchRequest searches for places of the given types around Center.
type NearbySearchRequest struct {
	Center        LatLng
	RadiusMeters  int
	IncludedTypes []string
	MaxResults    int
}

// TextSearchRequest searches for places matching Query, biased toward LocationBias.
type TextSearchRequest struct {
	Query        string
	LocationBias LatLng
	RadiusMeters int
	MaxResults   int
}

// AutocompleteRequest asks for place predictions for a partial Input.
// LocationBias is optional.
type AutocompleteRequest struct {
	Input        string
	LocationBias *LatLng
	RadiusMeters int
}

// AutocompleteResponse holds place predictions in relevance order.
type AutocompleteResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Suggestion is one autocomplete entry. PlacePrediction is nil for query
// predictions.
type Suggestion struct {
	PlacePrediction *PlacePrediction `json:"placePrediction,omitempty"`
}

// PlacePrediction is a predicted place for an autocomplete input.
type PlacePrediction struct {
	PlaceID          string            `json:"placeId"`
	Text             *LocalizedText    `json:"text,omitempty"`
	StructuredFormat *StructuredFormat `json:"structuredFormat,omitempty"`
}

// StructuredFormat splits a prediction into its name and its locality.
type StructuredFormat struct {
	MainText      *LocalizedText `json:"mainText,omitempty"`
	SecondaryText *LocalizedText `json:"secondaryText,omitempty"`
}

// SearchResponse is the response shared by nearby and text search.
type SearchResponse struct {
	Places []Place `json:"places"`
}

// Place is a raw candidate record. Optional numeric and location fields are
// pointers so that absence can be told apart from zero.
type Place struct {
	DisplayName              *LocalizedText `json:"displayName,omitempty"`
	Rating                   *float64       `json:"rating,omitempty"`
	UserRatingCount          *int           `json:"userRatingCount,omitempty"`
	FormattedAddress         string         `json:"formattedAddress,omitempty"`
	InternationalPhoneNumber string         `json:"internationalPhoneNumber,omitempty"`
	NationalPhoneNumber      string         `json:"nationalPhoneNumber,omitempty"`
	WebsiteURI               string         `json:"websiteUri,omitempty"`
	Types                    []string       `json:"types,omitempty"`
	Location                 *LatLng        `json:"location,omitempty"`
	Reviews                  []Review       `json:"reviews,omitempty"`
}

// LocalizedText is a Places API text value with language.
type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// Review is a single user review attached to a place.
type Review struct {
	Text *LocalizedText `json:"text,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetry sets the retry policy for transient upstream failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	timeout time.Duration
	retry   resilience.RetryConfig
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{},
		timeout: 10 * time.Second,
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type area struct {
	Circle circle `json:"circle"`
}

type nearbySearchBody struct {
	IncludedTypes       []string `json:"includedTypes,omitempty"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction area     `json:"locationRestriction"`
}

type textSearchBody struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount"`
	LocationBias   area   `json:"locationBias"`
}

type autocompleteBody struct {
	Input        string `json:"input"`
	LocationBias *area  `json:"locationBias,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// SearchNearby runs a Places nearby search restricted to a circle.
func (c *httpClient) SearchNearby(ctx context.Context, req NearbySearchRequest) (*SearchResponse, error) {
	body := nearbySearchBody{
		IncludedTypes:  req.IncludedTypes,
		MaxResultCount: orDefault(req.MaxResults, DefaultMaxResults),
		LocationRestriction: area{Circle: circle{
			Center: req.Center,
			Radius: float64(orDefault(req.RadiusMeters, DefaultRadiusMeters)),
		}},
	}
	return c.search(ctx, "search_nearby", "/places:searchNearby", body)
}

// SearchText runs a Places text search biased toward a circle.
func (c *httpClient) SearchText(ctx context.Context, req TextSearchRequest) (*SearchResponse, error) {
	body := textSearchBody{
		TextQuery:      req.Query,
		MaxResultCount: orDefault(req.MaxResults, DefaultMaxResults),
		LocationBias: area{Circle: circle{
			Center: req.LocationBias,
			Radius: float64(orDefault(req.RadiusMeters, DefaultRadiusMeters)),
		}},
	}
	return c.search(ctx, "search_text", "/places:searchText", body)
}

// Autocomplete returns place predictions for a partial location input.
// Inputs arrive per keystroke, so failures are not retried.
func (c *httpClient) Autocomplete(ctx context.Context, req AutocompleteRequest) (*AutocompleteResponse, error) {
	body := autocompleteBody{Input: req.Input, LanguageCode: "en"}
	if req.LocationBias != nil {
		body.LocationBias = &area{Circle: circle{
			Center: *req.LocationBias,
			Radius: float64(orDefault(req.RadiusMeters, DefaultRadiusMeters)),
		}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &SearchError{Op: "autocomplete", Err: eris.Wrap(err, "google: marshal request")}
	}

	return resilience.DoVal(ctx, resilience.NoRetry(), func(ctx context.Context) (*AutocompleteResponse, error) {
		return post[AutocompleteResponse](ctx, c, "autocomplete", "/places:autocomplete", autocompleteFieldMask, payload)
	})
}

// search posts body to path. Places searches are read-only, so transient
// failures are retried.
func (c *httpClient) search(ctx context.Context, op, path string, body any) (*SearchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &SearchError{Op: op, Err: eris.Wrap(err, "google: marshal request")}
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry = retry.WithLogging("places", op)
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*SearchResponse, error) {
		return post[SearchResponse](ctx, c, op, path, fieldMask, payload)
	})
}

// post sends one request and decodes a 200 response into T.
func post[T any](ctx context.Context, c *httpClient, op, path, mask string, payload []byte) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &SearchError{Op: op, Err: eris.Wrap(err, "google: create request")}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", mask)

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := eris.Wrap(err, "google: send request")
		if resilience.IsTransient(err) {
			return nil, &SearchError{Op: op, Err: resilience.NewTransientError(wrapped, 0)}
		}
		return nil, &SearchError{Op: op, Err: wrapped}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SearchError{Op: op, Err: resilience.NewTransientError(eris.Wrap(err, "google: read response"), 0)}
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("google: unexpected status %d", resp.StatusCode)
		return nil, &SearchError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Snippet:    Snippet(respBody),
			Err:        resilience.ClassifyStatus(statusErr, resp.StatusCode),
		}
	}

	var result T
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &SearchError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Snippet:    Snippet(respBody),
			Malformed:  true,
			Err:        eris.Wrap(err, "google: unmarshal response"),
		}
	}

	return &result, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

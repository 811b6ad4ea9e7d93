// Package iplocate looks up the caller's approximate location from its
// public IP address using ipinfo.io.
package iplocate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/planora/provider-discovery/internal/resilience"
)

const defaultURL = "https://ipinfo.io/json"

// Location is an approximate IP-derived location.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
}

// DefaultLocation is returned when the lookup succeeds but carries no usable
// coordinates.
var DefaultLocation = Location{
	Lat:     37.7749,
	Lng:     -122.4194,
	City:    "Unknown",
	Region:  "Unknown",
	Country: "Unknown",
}

// Client performs IP location lookups.
type Client interface {
	Locate(ctx context.Context) (*Location, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithURL overrides the lookup endpoint.
func WithURL(url string) Option {
	return func(c *httpClient) {
		c.url = url
	}
}

// WithToken sets an ipinfo.io access token.
func WithToken(token string) Option {
	return func(c *httpClient) {
		c.token = token
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	url   string
	token string
	http  *http.Client
	retry resilience.RetryConfig
}

// NewClient creates an ipinfo.io client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		url:   defaultURL,
		http:  &http.Client{Timeout: 5 * time.Second},
		retry: resilience.DefaultRetryConfig().WithLogging("ipinfo", "locate"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type ipinfoResponse struct {
	Loc     string `json:"loc"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Locate returns the approximate location of the server's public IP. A
// response without a parsable "loc" yields DefaultLocation; transport and
// status failures are errors.
func (c *httpClient) Locate(ctx context.Context) (*Location, error) {
	return resilience.DoVal(ctx, c.retry, c.locate)
}

func (c *httpClient) locate(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "iplocate: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := eris.Wrap(err, "iplocate: send request")
		if resilience.IsTransient(err) {
			return nil, resilience.NewTransientError(wrapped, 0)
		}
		return nil, wrapped
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "iplocate: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.ClassifyStatus(
			eris.Errorf("iplocate: unexpected status %d", resp.StatusCode), resp.StatusCode)
	}

	var info ipinfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, eris.Wrap(err, "iplocate: unmarshal response")
	}

	lat, lng, ok := parseLoc(info.Loc)
	if !ok {
		loc := DefaultLocation
		return &loc, nil
	}

	return &Location{
		Lat:     lat,
		Lng:     lng,
		City:    info.City,
		Region:  info.Region,
		Country: info.Country,
	}, nil
}

// parseLoc parses ipinfo's "lat,lng" string.
func parseLoc(s string) (lat, lng float64, ok bool) {
	latStr, lngStr, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

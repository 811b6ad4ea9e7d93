package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/planora/provider-discovery/internal/discovery"
	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/pkg/iplocate"
)

const (
	locationSourceHeader = "X-Location-Source"
	maxBodyBytes         = 1 << 20
	formatGeoJSON        = "geojson"
)

// discoverer runs the two discovery operations.
type discoverer interface {
	DiscoverByCategory(ctx context.Context, req discovery.CategoryRequest) (*model.RankedResult, error)
	DiscoverByText(ctx context.Context, req discovery.TextRequest) (*model.RankedResult, error)
}

// locationSearcher suggests locations for a partial input.
type locationSearcher interface {
	SearchLocations(ctx context.Context, req discovery.LocationSearchRequest) ([]model.LocationSuggestion, error)
}

type handlers struct {
	service   discoverer
	locations locationSearcher
	locator   iplocate.Client
}

// eventLocation accepts either a bare description string or an object with
// a description and optional coordinates.
type eventLocation struct {
	Description string   `json:"description"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

func (l *eventLocation) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &l.Description)
	}

	type plain eventLocation
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return eris.Wrap(err, "event_location")
	}
	*l = eventLocation(p)
	return nil
}

func (l eventLocation) toLocation() discovery.Location {
	loc := discovery.Location{Description: l.Description}
	if l.Lat != nil && l.Lng != nil {
		loc.Coordinates = &model.Coordinates{Latitude: *l.Lat, Longitude: *l.Lng}
	}
	return loc
}

type categoryRequest struct {
	EventName     string        `json:"event_name"`
	EventCategory string        `json:"event_category"`
	EventLocation eventLocation `json:"event_location"`
}

type textRequest struct {
	SearchQuery   string        `json:"search_query"`
	EventLocation eventLocation `json:"event_location"`
}

type categoryResponse struct {
	EventName        string               `json:"event_name"`
	EventCategory    string               `json:"event_category"`
	EventLocation    model.LocationJSON   `json:"event_location"`
	ServiceProviders []model.ProviderJSON `json:"service_providers"`
}

type textResponse struct {
	SearchQuery      string               `json:"search_query"`
	EventLocation    model.LocationJSON   `json:"event_location"`
	ServiceProviders []model.ProviderJSON `json:"service_providers"`
}

type emptyResponse struct {
	Message          string               `json:"message"`
	ServiceProviders []model.ProviderJSON `json:"service_providers"`
}

type locationSearchResponse struct {
	Results []model.LocationSuggestion `json:"results"`
}

type categoriesResponse struct {
	Categories []categoryEntry `json:"categories"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) discoverByCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.service.DiscoverByCategory(r.Context(), discovery.CategoryRequest{
		EventName:     req.EventName,
		EventCategory: req.EventCategory,
		Location:      req.EventLocation.toLocation(),
	})
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}

	w.Header().Set(locationSourceHeader, string(res.Location.Source))
	if wantsGeoJSON(r) {
		writeGeoJSON(w, res)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{
		EventName:        req.EventName,
		EventCategory:    req.EventCategory,
		EventLocation:    res.Location.ToJSON(),
		ServiceProviders: res.ProvidersJSON(),
	})
}

func (h *handlers) discoverByText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.service.DiscoverByText(r.Context(), discovery.TextRequest{
		SearchQuery: req.SearchQuery,
		Location:    req.EventLocation.toLocation(),
	})
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}

	w.Header().Set(locationSourceHeader, string(res.Location.Source))
	if wantsGeoJSON(r) {
		writeGeoJSON(w, res)
		return
	}
	if len(res.Providers) == 0 {
		writeJSON(w, http.StatusOK, emptyResponse{
			Message:          discovery.MsgNoProvidersMatched,
			ServiceProviders: []model.ProviderJSON{},
		})
		return
	}
	writeJSON(w, http.StatusOK, textResponse{
		SearchQuery:      req.SearchQuery,
		EventLocation:    res.Location.ToJSON(),
		ServiceProviders: res.ProvidersJSON(),
	})
}

func (h *handlers) initialLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.locator.Locate(r.Context())
	if err != nil {
		zap.L().Error("initial location lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Could not determine initial location"})
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *handlers) searchLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bias, ok := queryBias(q.Get("lat"), q.Get("lng"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": discovery.MsgInvalidBias})
		return
	}

	out, err := h.locations.SearchLocations(r.Context(), discovery.LocationSearchRequest{
		Query: q.Get("query"),
		Bias:  bias,
	})
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationSearchResponse{Results: out})
}

func (h *handlers) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categoryEntries()})
}

// queryBias parses optional lat/lng query values. The bias applies only when
// both are present; ok is false when a present value is not a number.
func queryBias(lat, lng string) (*model.Coordinates, bool) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return nil, true
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, false
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, false
	}
	return &model.Coordinates{Latitude: la, Longitude: ln}, true
}

// decodeBody decodes the JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeDiscoveryError(w http.ResponseWriter, r *http.Request, err error) {
	status := discovery.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("discovery request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": discovery.Message(err)})
}

func wantsGeoJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == formatGeoJSON
}

func writeGeoJSON(w http.ResponseWriter, res *model.RankedResult) {
	body, err := encodeGeoJSON(res)
	if err != nil {
		zap.L().Error("geojson encoding failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An unexpected error occurred"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

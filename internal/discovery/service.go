// Package discovery composes geocoding, provider search, normalization and
// ranking into the two provider discovery operations.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/planora/provider-discovery/internal/metrics"
	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/internal/ranking"
	"github.com/planora/provider-discovery/internal/taxonomy"
	"github.com/planora/provider-discovery/pkg/geocode"
	"github.com/planora/provider-discovery/pkg/google"
)

// Caller-facing messages.
const (
	MsgLocationRequired   = "Event location is required"
	MsgQueryRequired      = "Search query is required"
	MsgNoCoordinates      = "Could not determine coordinates for the event location"
	MsgSearchUnavailable  = "Provider search service is currently unavailable"
	MsgNoProvidersFound   = "No service providers found for this event"
	MsgNoProvidersMatched = "No service providers found matching your search"
)

const (
	modeCategory = "category"
	modeText     = "text"
)

// Location identifies where an event takes place. Coordinates, when set,
// are used as-is and geocoding is skipped.
type Location struct {
	Description string
	Coordinates *model.Coordinates
}

// CategoryRequest is the input to DiscoverByCategory.
type CategoryRequest struct {
	EventName     string
	EventCategory string
	Location      Location
}

// TextRequest is the input to DiscoverByText.
type TextRequest struct {
	SearchQuery string
	Location    Location
}

// Option configures a Service.
type Option func(*Service)

// WithRadiusMeters sets the search radius.
func WithRadiusMeters(m int) Option {
	return func(s *Service) {
		if m > 0 {
			s.radiusMeters = m
		}
	}
}

// WithMaxResults sets how many candidates are requested from search.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithTopK sets how many ranked providers are returned.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithGeocodeTimeout bounds the geocoding step of each request.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.geocodeTimeout = d
		}
	}
}

// WithSearchTimeout bounds the provider search step of each request,
// including retries.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// Service runs discovery requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	geocoder       geocode.Client
	places         google.Client
	radiusMeters   int
	maxResults     int
	topK           int
	geocodeTimeout time.Duration
	searchTimeout  time.Duration
}

// NewService creates a Service.
func NewService(geocoder geocode.Client, places google.Client, opts ...Option) *Service {
	s := &Service{
		geocoder:       geocoder,
		places:         places,
		radiusMeters:   google.DefaultRadiusMeters,
		maxResults:     google.DefaultMaxResults,
		topK:           ranking.TopK,
		geocodeTimeout: 15 * time.Second,
		searchTimeout:  30 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DiscoverByCategory finds providers suited to an event category near the
// event location. An empty candidate pool is ErrNotFound.
func (s *Service) DiscoverByCategory(ctx context.Context, req CategoryRequest) (result *model.RankedResult, err error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("request_id", uuid.NewString()),
		zap.String("mode", modeCategory),
		zap.String("category", req.EventCategory),
	)
	defer func() { s.record(modeCategory, start, result, err) }()

	loc, err := s.resolve(ctx, log, req.Location)
	if err != nil {
		return nil, err
	}

	types := taxonomy.TypesFor(req.EventCategory)
	if !taxonomy.IsKnown(req.EventCategory) {
		log.Debug("unknown category, using default types", zap.Strings("types", types))
	}

	resp, err := s.search(ctx, func(ctx context.Context) (*google.SearchResponse, error) {
		return s.places.SearchNearby(ctx, google.NearbySearchRequest{
			Center:        toLatLng(loc.Coordinates),
			RadiusMeters:  s.radiusMeters,
			IncludedTypes: types,
			MaxResults:    s.maxResults,
		})
	})
	if err != nil {
		log.Error("provider search failed", zap.Error(err))
		return nil, err
	}

	providers, err := s.normalize(ctx, log, resp.Places)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		log.Info("no providers found", zap.Int("candidates", len(resp.Places)))
		return nil, newError(ErrNotFound, MsgNoProvidersFound, nil)
	}

	return s.rank(log, loc, providers), nil
}

// DiscoverByText finds providers matching a free-text query near the event
// location. An empty candidate pool is a successful empty result.
func (s *Service) DiscoverByText(ctx context.Context, req TextRequest) (result *model.RankedResult, err error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("request_id", uuid.NewString()),
		zap.String("mode", modeText),
		zap.String("query", req.SearchQuery),
	)
	defer func() { s.record(modeText, start, result, err) }()

	query := strings.TrimSpace(req.SearchQuery)
	if query == "" {
		return nil, newError(ErrBadRequest, MsgQueryRequired, nil)
	}

	loc, err := s.resolve(ctx, log, req.Location)
	if err != nil {
		return nil, err
	}

	resp, err := s.search(ctx, func(ctx context.Context) (*google.SearchResponse, error) {
		return s.places.SearchText(ctx, google.TextSearchRequest{
			Query:        query,
			LocationBias: toLatLng(loc.Coordinates),
			RadiusMeters: s.radiusMeters,
			MaxResults:   s.maxResults,
		})
	})
	if err != nil {
		log.Error("provider search failed", zap.Error(err))
		return nil, err
	}

	providers, err := s.normalize(ctx, log, resp.Places)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		log.Info("no providers matched", zap.Int("candidates", len(resp.Places)))
		return &model.RankedResult{Location: loc, Providers: []model.Provider{}}, nil
	}

	return s.rank(log, loc, providers), nil
}

// resolve validates the location input and turns it into coordinates.
func (s *Service) resolve(ctx context.Context, log *zap.Logger, in Location) (model.ResolvedLocation, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return model.ResolvedLocation{}, newError(ErrBadRequest, MsgLocationRequired, nil)
	}

	if in.Coordinates != nil {
		if !validCoordinates(*in.Coordinates) {
			return model.ResolvedLocation{}, newError(ErrBadRequest, MsgNoCoordinates, nil)
		}
		loc := model.ResolvedLocation{
			Coordinates:      *in.Coordinates,
			FormattedAddress: desc,
			Source:           model.LocationSourceProvided,
		}
		metrics.RecordGeocode(string(loc.Source))
		log.Debug("using provided coordinates",
			zap.Float64("lat", loc.Coordinates.Latitude),
			zap.Float64("lng", loc.Coordinates.Longitude),
		)
		return loc, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	defer cancel()

	loc := s.geocoder.Resolve(gctx, desc)
	metrics.RecordGeocode(string(loc.Source))

	if !validCoordinates(loc.Coordinates) {
		return model.ResolvedLocation{}, newError(ErrBadRequest, MsgNoCoordinates, nil)
	}

	if loc.IsFallback() {
		log.Warn("geocoding failed, using fallback location",
			zap.String("description", desc),
			zap.String("address", loc.FormattedAddress),
		)
		return loc, nil
	}
	log.Info("location resolved",
		zap.String("source", string(loc.Source)),
		zap.String("address", loc.FormattedAddress),
	)
	return loc, nil
}

// search runs fn under the search timeout and maps failures to
// ErrServiceUnavailable.
func (s *Service) search(ctx context.Context, fn func(context.Context) (*google.SearchResponse, error)) (*google.SearchResponse, error) {
	sctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	resp, err := fn(sctx)
	if err != nil {
		if errors.Is(err, google.ErrSearchUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(ErrServiceUnavailable, searchMessage(err), err)
		}
		return nil, newError(ErrInternal, "An unexpected error occurred", eris.Wrap(err, "discovery: search"))
	}
	if resp == nil {
		resp = &google.SearchResponse{}
	}
	return resp, nil
}

func (s *Service) normalize(ctx context.Context, log *zap.Logger, places []google.Place) ([]model.Provider, error) {
	providers, err := NormalizeAll(ctx, places)
	if err != nil {
		return nil, newError(ErrInternal, "An unexpected error occurred", eris.Wrap(err, "discovery: normalize"))
	}

	skipped := len(places) - len(providers)
	metrics.RecordCandidates(len(places), skipped)
	log.Debug("candidates normalized",
		zap.Int("candidates", len(places)),
		zap.Int("skipped", skipped),
	)
	return providers, nil
}

func (s *Service) rank(log *zap.Logger, loc model.ResolvedLocation, providers []model.Provider) *model.RankedResult {
	ranked := ranking.Truncate(ranking.Rank(providers, loc.Coordinates), s.topK)
	log.Info("providers ranked",
		zap.Int("candidates", len(providers)),
		zap.Int("providers", len(ranked)),
	)
	return &model.RankedResult{Location: loc, Providers: ranked}
}

func (s *Service) record(mode string, start time.Time, result *model.RankedResult, err error) {
	outcome := outcomeOf(err)
	if err == nil && result != nil {
		if len(result.Providers) == 0 {
			outcome = "empty"
		}
		metrics.RecordProvidersReturned(len(result.Providers))
	}
	metrics.RecordDiscovery(mode, outcome, time.Since(start))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// searchMessage builds the 503 message. Malformed upstream bodies include a
// truncated snippet for diagnosis.
func searchMessage(err error) string {
	var se *google.SearchError
	if errors.As(err, &se) && se.Malformed && se.Snippet != "" {
		return fmt.Sprintf("%s: invalid response from upstream (%s)", MsgSearchUnavailable, se.Snippet)
	}
	return MsgSearchUnavailable
}

func validCoordinates(c model.Coordinates) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func toLatLng(c model.Coordinates) google.LatLng {
	return google.LatLng{Latitude: c.Latitude, Longitude: c.Longitude}
}

package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/planora/provider-discovery/internal/metrics"
	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/pkg/google"
)

const (
	MsgInvalidBias          = "Invalid location coordinates"
	MsgLocationSearchFailed = "Location search service is currently unavailable"
)

const modeLocations = "locations"

// LocationSearchRequest is the input to SearchLocations. Bias, when set,
// favours suggestions near those coordinates.
type LocationSearchRequest struct {
	Query string
	Bias  *model.Coordinates
}

// SearchLocations returns autocomplete suggestions for a partial location
// input. No matches is a successful empty result.
func (s *Service) SearchLocations(ctx context.Context, req LocationSearchRequest) (out []model.LocationSuggestion, err error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("request_id", uuid.NewString()),
		zap.String("mode", modeLocations),
		zap.String("query", req.Query),
	)
	defer func() {
		outcome := outcomeOf(err)
		if err == nil && len(out) == 0 {
			outcome = "empty"
		}
		metrics.RecordDiscovery(modeLocations, outcome, time.Since(start))
	}()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, newError(ErrBadRequest, MsgQueryRequired, nil)
	}

	ac := google.AutocompleteRequest{Input: query, RadiusMeters: s.radiusMeters}
	if req.Bias != nil {
		if !validCoordinates(*req.Bias) {
			return nil, newError(ErrBadRequest, MsgInvalidBias, nil)
		}
		bias := toLatLng(*req.Bias)
		ac.LocationBias = &bias
	}

	sctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	resp, err := s.places.Autocomplete(sctx, ac)
	if err != nil {
		log.Error("location search failed", zap.Error(err))
		if errors.Is(err, google.ErrSearchUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(ErrServiceUnavailable, MsgLocationSearchFailed, err)
		}
		return nil, newError(ErrInternal, "An unexpected error occurred", eris.Wrap(err, "discovery: autocomplete"))
	}

	out = suggestionsFrom(resp)
	log.Debug("locations suggested", zap.Int("suggestions", len(out)))
	return out, nil
}

// suggestionsFrom keeps place predictions only, in upstream order.
func suggestionsFrom(resp *google.AutocompleteResponse) []model.LocationSuggestion {
	out := []model.LocationSuggestion{}
	if resp == nil {
		return out
	}
	for _, sg := range resp.Suggestions {
		pred := sg.PlacePrediction
		if pred == nil || pred.PlaceID == "" {
			continue
		}
		item := model.LocationSuggestion{ID: pred.PlaceID, Description: textOf(pred.Text)}
		if f := pred.StructuredFormat; f != nil {
			item.StructuredFormatting = model.StructuredFormatting{
				MainText:      textOf(f.MainText),
				SecondaryText: textOf(f.SecondaryText),
			}
		}
		if item.StructuredFormatting.MainText == "" {
			item.StructuredFormatting.MainText = item.Description
		}
		out = append(out, item)
	}
	return out
}

func textOf(t *google.LocalizedText) string {
	if t == nil {
		return ""
	}
	return t.Text
}

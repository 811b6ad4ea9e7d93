package main

import (
	"context"
	"testing"

	"github.com/planora/provider-discovery/internal/discovery"
	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/pkg/google"
	"github.com/planora/provider-discovery/pkg/google/mocks"
	"github.com/planora/provider-discovery/pkg/iplocate"
)

var austin = model.ResolvedLocation{
	Coordinates:      model.Coordinates{Latitude: 30.2672, Longitude: -97.7431},
	FormattedAddress: "Austin, TX, USA",
	Source:           model.LocationSourceResolved,
}

type stubGeocoder struct{ loc model.ResolvedLocation }

func (s stubGeocoder) Resolve(context.Context, string) model.ResolvedLocation { return s.loc }

type stubLocator struct {
	loc *iplocate.Location
	err error
}

func (s stubLocator) Locate(context.Context) (*iplocate.Location, error) { return s.loc, s.err }

func newTestHandlers(t *testing.T, loc model.ResolvedLocation) (*handlers, *mocks.MockClient) {
	t.Helper()
	places := mocks.NewMockClient(t)
	svc := discovery.NewService(stubGeocoder{loc: loc}, places)
	return &handlers{
		service:   svc,
		locations: svc,
		locator:   stubLocator{loc: &iplocate.DefaultLocation},
	}, places
}

func ptr[T any](v T) *T { return &v }

func place(name string, rating float64, reviews int, lat, lng float64) google.Place {
	return google.Place{
		DisplayName:     &google.LocalizedText{Text: name},
		Rating:          ptr(rating),
		UserRatingCount: ptr(reviews),
		Types:           []string{"event_venue"},
		Location:        &google.LatLng{Latitude: lat, Longitude: lng},
	}
}

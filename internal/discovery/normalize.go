package discovery

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/planora/provider-discovery/internal/model"
	"github.com/planora/provider-discovery/pkg/google"
)

// normalizeConcurrency bounds the goroutines used by NormalizeAll.
const normalizeConcurrency = 8

// Normalize maps a raw Places record to a Provider, applying defaults for
// missing fields. It returns false when the place has no rating; such
// candidates are never ranked. DistanceKm and RankScore are left unset.
func Normalize(place google.Place) (model.Provider, bool) {
	if place.Rating == nil {
		return model.Provider{}, false
	}

	p := model.Provider{
		Name:        model.DefaultProviderName,
		Rating:      *place.Rating,
		Address:     orDefault(place.FormattedAddress, model.DefaultProviderAddress),
		Phone:       model.DefaultProviderPhone,
		Website:     orDefault(place.WebsiteURI, model.DefaultProviderWebsite),
		Types:       append([]string{}, place.Types...),
		Description: model.DefaultProviderDescription,
	}

	if place.DisplayName != nil && strings.TrimSpace(place.DisplayName.Text) != "" {
		p.Name = place.DisplayName.Text
	}
	if place.UserRatingCount != nil {
		p.ReviewCount = *place.UserRatingCount
	}

	switch {
	case place.InternationalPhoneNumber != "":
		p.Phone = place.InternationalPhoneNumber
	case place.NationalPhoneNumber != "":
		p.Phone = place.NationalPhoneNumber
	}

	if len(place.Reviews) > 0 {
		if first := place.Reviews[0].Text; first != nil && strings.TrimSpace(first.Text) != "" {
			p.Description = first.Text
		}
	}

	if place.Location != nil {
		p.Coordinates = &model.Coordinates{
			Latitude:  place.Location.Latitude,
			Longitude: place.Location.Longitude,
		}
	}

	p.Tags = tagsFromTypes(p.Types)
	return p, true
}

// NormalizeAll normalizes places concurrently, dropping skipped candidates.
// The returned providers keep the relative order of their input places.
func NormalizeAll(ctx context.Context, places []google.Place) ([]model.Provider, error) {
	slots := make([]*model.Provider, len(places))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(normalizeConcurrency)

	for i := range places {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if p, ok := Normalize(places[i]); ok {
				slots[i] = &p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Provider, 0, len(places))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// tagsFromTypes turns upstream type codes into display tags, e.g.
// "concert_hall" -> "Concert Hall".
func tagsFromTypes(types []string) []string {
	// A Caser holds state and must not be shared between goroutines.
	caser := cases.Title(language.English)

	tags := make([]string, 0, len(types))
	for _, t := range types {
		tags = append(tags, caser.String(strings.ReplaceAll(t, "_", " ")))
	}
	return tags
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

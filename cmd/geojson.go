package main

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/planora/provider-discovery/internal/model"
)

// buildFeatureCollection renders a result as GeoJSON. The first feature is
// the event location; providers follow in rank order. Providers without
// coordinates cannot be placed on a map and are omitted.
func buildFeatureCollection(res *model.RankedResult) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(res.Providers)+1),
	}

	loc := res.Location
	fc.Features = append(fc.Features, &geojson.Feature{
		ID:       "event_location",
		Geometry: point(loc.Coordinates),
		Properties: map[string]any{
			"kind":    "event_location",
			"address": loc.FormattedAddress,
			"source":  string(loc.Source),
		},
	})

	for i, p := range res.Providers {
		if p.Coordinates == nil {
			continue
		}
		pj := p.ToJSON()
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(i + 1),
			Geometry: point(*p.Coordinates),
			Properties: map[string]any{
				"kind":              "provider",
				"rank":              i + 1,
				"name":              pj.Name,
				"rating":            pj.Rating,
				"user_rating_count": pj.UserRatingCount,
				"address":           pj.Address,
				"phone_number":      pj.PhoneNumber,
				"website":           pj.Website,
				"types":             pj.Types,
				"tags":              pj.Tags,
				"description":       pj.Description,
				"distance":          pj.Distance,
				"rank_score":        pj.RankScore,
			},
		})
	}
	return fc
}

func encodeGeoJSON(res *model.RankedResult) ([]byte, error) {
	b, err := json.Marshal(buildFeatureCollection(res))
	if err != nil {
		return nil, eris.Wrap(err, "geojson: marshal feature collection")
	}
	return b, nil
}

// point builds a GeoJSON point; GeoJSON orders coordinates lng, lat.
func point(c model.Coordinates) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude})
}

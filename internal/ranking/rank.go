// Package ranking scores providers by rating, review volume, and proximity.
package ranking

import (
	"math"
	"sort"

	"github.com/planora/provider-discovery/internal/geo"
	"github.com/planora/provider-discovery/internal/model"
)

// TopK is the number of providers returned by a discovery request.
const TopK = 10

// Score weights and normalization caps.
const (
	ratingWeight    = 0.5
	reviewWeight    = 0.3
	proximityWeight = 0.2

	maxRating        = 5.0
	reviewSaturation = 100.0
	proximityRangeKm = 15.0
)

// Score computes the composite rank score for p, in [0, 1]. It returns 0
// when the provider has no rating or no known distance. Ratings above the
// 5-star scale count as 5.
func Score(p model.Provider) float64 {
	if p.Rating <= 0 || p.DistanceKm == nil {
		return 0
	}

	normalizedRating := math.Min(p.Rating/maxRating, 1)
	normalizedReview := math.Min(float64(p.ReviewCount)/reviewSaturation, 1)
	normalizedProximity := 1 - math.Min(*p.DistanceKm/proximityRangeKm, 1)

	return normalizedRating*ratingWeight +
		normalizedReview*reviewWeight +
		normalizedProximity*proximityWeight
}

// Rank sets DistanceKm and RankScore on every provider relative to origin and
// returns them sorted by descending score. Equal scores keep input order.
// The input slice is sorted in place.
func Rank(providers []model.Provider, origin model.Coordinates) []model.Provider {
	for i := range providers {
		providers[i].DistanceKm = geo.DistanceKm(providers[i].Coordinates, &origin)
		providers[i].RankScore = Score(providers[i])
	}

	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].RankScore > providers[j].RankScore
	})
	return providers
}

// Truncate returns at most k providers from the head of the slice.
func Truncate(providers []model.Provider, k int) []model.Provider {
	if k < 0 {
		k = 0
	}
	if len(providers) <= k {
		return providers
	}
	return providers[:k]
}

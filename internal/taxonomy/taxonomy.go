// Package taxonomy maps event categories to Places API provider types.
package taxonomy

// DefaultCategory is the table key used for categories that are not known.
const DefaultCategory = "default"

var categoryOrder = []string{
	"Music",
	"Food & Drink",
	"Business",
	"Sports",
	"Education",
	"Arts",
	"Technology",
	"Health",
	"Travel",
	"Fashion",
	"Film & Media",
	"Gaming",
	"Community",
	"Charity",
	"Religious",
	"Politics",
	"Science",
	"Family",
	"Pets",
	"Outdoors",
	"Nightlife",
	"Performing Arts",
	"Culture",
	"Holiday",
}

// categoryTypes is built once and never mutated; lookups hand out copies.
var categoryTypes = map[string][]string{
	"Music":           {"performing_arts_theater", "concert_hall", "electronics_store", "karaoke"},
	"Food & Drink":    {"restaurant", "catering_service", "bar", "bakery"},
	"Business":        {"convention_center", "event_venue", "hotel", "catering_service"},
	"Sports":          {"stadium", "sports_complex", "sporting_goods_store", "gym"},
	"Education":       {"library", "university", "book_store", "school"},
	"Arts":            {"art_gallery", "art_studio", "museum", "store"},
	"Technology":      {"electronics_store", "convention_center", "event_venue", "coworking_space"},
	"Health":          {"gym", "spa", "wellness_center", "yoga_studio"},
	"Travel":          {"travel_agency", "hotel", "car_rental", "tourist_attraction"},
	"Fashion":         {"clothing_store", "shoe_store", "jewelry_store", "beauty_salon"},
	"Film & Media":    {"movie_theater", "event_venue", "electronics_store", "performing_arts_theater"},
	"Gaming":          {"video_arcade", "amusement_center", "electronics_store", "internet_cafe"},
	"Community":       {"community_center", "event_venue", "park", "catering_service"},
	"Charity":         {"community_center", "event_venue", "banquet_hall", "catering_service"},
	"Religious":       {"church", "mosque", "synagogue", "hindu_temple"},
	"Politics":        {"city_hall", "convention_center", "event_venue", "community_center"},
	"Science":         {"museum", "planetarium", "university", "library"},
	"Family":          {"amusement_park", "playground", "zoo", "catering_service"},
	"Pets":            {"pet_store", "veterinary_care", "dog_park", "park"},
	"Outdoors":        {"park", "campground", "hiking_area", "sporting_goods_store"},
	"Nightlife":       {"night_club", "bar", "karaoke", "event_venue"},
	"Performing Arts": {"performing_arts_theater", "concert_hall", "opera_house", "auditorium"},
	"Culture":         {"museum", "cultural_center", "art_gallery", "historical_landmark"},
	"Holiday":         {"event_venue", "banquet_hall", "catering_service", "florist"},
	DefaultCategory:   {"store", "event_venue", "restaurant", "catering_service"},
}

// TypesFor returns the ordered provider types to search for the given event
// category. Unknown categories map to the default set. Matching is exact.
func TypesFor(category string) []string {
	types, ok := categoryTypes[category]
	if !ok {
		types = categoryTypes[DefaultCategory]
	}
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// IsKnown reports whether category has its own entry in the table.
func IsKnown(category string) bool {
	if category == DefaultCategory {
		return false
	}
	_, ok := categoryTypes[category]
	return ok
}

// Categories returns the known event categories in their canonical order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

package model

import "math"

// LocationSource records how a ResolvedLocation was obtained.
type LocationSource string

const (
	LocationSourceResolved LocationSource = "resolved" // Geocoder returned a match
	LocationSourceFallback LocationSource = "fallback" // Geocoder failed; default city substituted
	LocationSourceProvided LocationSource = "provided" // Caller supplied coordinates
)

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ResolvedLocation is the output of geocoding. It is always fully populated.
type ResolvedLocation struct {
	Coordinates      Coordinates    `json:"coordinates"`
	FormattedAddress string         `json:"formatted_address"`
	Source           LocationSource `json:"source"`
}

// IsFallback reports whether the location is the geocoder's default substitute.
func (l ResolvedLocation) IsFallback() bool {
	return l.Source == LocationSourceFallback
}

// Default values applied to providers when the upstream record omits a field.
const (
	DefaultProviderName        = "Unknown Provider"
	DefaultProviderAddress     = "Address not available"
	DefaultProviderPhone       = "No phone number available"
	DefaultProviderWebsite     = "No website available"
	DefaultProviderDescription = "No description available"
)

// Provider is the canonical, transient representation of a service provider.
type Provider struct {
	Name        string
	Rating      float64
	ReviewCount int
	Address     string
	Phone       string
	Website     string
	Types       []string
	Tags        []string
	Description string
	Coordinates *Coordinates
	DistanceKm  *float64
	RankScore   float64
}

// RankedResult is the response of a discovery operation.
type RankedResult struct {
	Location  ResolvedLocation
	Providers []Provider
}

// LatLng is the wire shape for coordinates in API responses.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ProviderJSON is the serialized form of a Provider.
type ProviderJSON struct {
	Name            string   `json:"name"`
	Rating          float64  `json:"rating"`
	Address         string   `json:"address"`
	PhoneNumber     string   `json:"phone_number"`
	Website         string   `json:"website"`
	Types           []string `json:"types"`
	UserRatingCount int      `json:"user_rating_count"`
	Coordinates     *LatLng  `json:"coordinates"`
	Description     string   `json:"description"`
	Distance        *float64 `json:"distance"`
	Tags            []string `json:"tags"`
	RankScore       float64  `json:"rank_score"`
}

// LocationJSON is the serialized form of a ResolvedLocation.
type LocationJSON struct {
	Address     string `json:"address"`
	Coordinates LatLng `json:"coordinates"`
}

// ToJSON converts a Provider into its wire form. Distance is rounded to two
// decimals; nil slices become empty arrays.
func (p Provider) ToJSON() ProviderJSON {
	out := ProviderJSON{
		Name:            p.Name,
		Rating:          p.Rating,
		Address:         p.Address,
		PhoneNumber:     p.Phone,
		Website:         p.Website,
		Types:           nonNil(p.Types),
		UserRatingCount: p.ReviewCount,
		Description:     p.Description,
		Tags:            nonNil(p.Tags),
		RankScore:       p.RankScore,
	}
	if p.Coordinates != nil {
		out.Coordinates = &LatLng{Lat: p.Coordinates.Latitude, Lng: p.Coordinates.Longitude}
	}
	if p.DistanceKm != nil {
		d := math.Round(*p.DistanceKm*100) / 100
		out.Distance = &d
	}
	return out
}

// ToJSON converts a ResolvedLocation into its wire form.
func (l ResolvedLocation) ToJSON() LocationJSON {
	return LocationJSON{
		Address: l.FormattedAddress,
		Coordinates: LatLng{
			Lat: l.Coordinates.Latitude,
			Lng: l.Coordinates.Longitude,
		},
	}
}

// ProvidersJSON converts the result's providers into wire form, never nil.
func (r RankedResult) ProvidersJSON() []ProviderJSON {
	out := make([]ProviderJSON, 0, len(r.Providers))
	for _, p := range r.Providers {
		out = append(out, p.ToJSON())
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

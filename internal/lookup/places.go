package lookup

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"

	"backend-everywhere/internal/place"
)

const (
	// UnknownPlace is shown when a place cannot be named.
	UnknownPlace = "Unknown Place"

	RecommendRadiusM  = 1000
	typeLookupRadiusM = 70
	maxRecommended    = 10
	defaultCategory   = "bar"

	minRating       = 3.5
	minRatingsTotal = 5
)

var excludedVenueTypes = []string{
	"political", "postal_code", "locality", "sublocality", "establishment",
	"lodging", "insurance_agency", "finance", "parking",
}

var blockedNameWords = []string{"atm", "service", "repair", "gas", "station"}

var categoryByKind = map[string]string{
	"home":       "park",
	"work":       "cafe",
	"cafe":       "cafe",
	"restaurant": "restaurant",
	"gym":        "gym",
	"grocery":    "grocery_or_supermarket",
	"groceries":  "grocery_or_supermarket",
	"bar":        "bar",
}

// PlaceName returns the name of the first geocoded address at a coordinate.
func PlaceName(ctx context.Context, g Geocoder, lat, lng float64) string {
	if g == nil {
		return UnknownPlace
	}
	addresses, err := g.Geocode(ctx, lat, lng)
	if err != nil {
		log.Debug().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("reverse geocode failed")
		return UnknownPlace
	}
	if len(addresses) == 0 || addresses[0].Name == "" {
		return UnknownPlace
	}
	return addresses[0].Name
}

// CityName is the locality of a coordinate, or its region when the locality
// is missing. It is empty when the coordinate cannot be geocoded.
func CityName(ctx context.Context, g Geocoder, lat, lng float64) string {
	if g == nil {
		return ""
	}
	addresses, err := g.Geocode(ctx, lat, lng)
	if err != nil || len(addresses) == 0 {
		return ""
	}
	if addresses[0].City != "" {
		return addresses[0].City
	}
	return addresses[0].Region
}

// Categorize maps Places API types to a place type. The first recognized
// type wins.
func Categorize(types []string) place.Type {
	for _, t := range types {
		switch t {
		case "cafe":
			return place.TypeCafe
		case "gym":
			return place.TypeGym
		case "bar", "night_club":
			return place.TypeBar
		case "supermarket", "grocery_or_supermarket":
			return place.TypeGrocery
		case "park":
			return place.TypePark
		}
	}
	return place.TypeUnknown
}

// DetectType categorizes the venue closest to a coordinate.
func DetectType(ctx context.Context, s PlaceSearcher, lat, lng float64) place.Type {
	if s == nil {
		return place.TypeUnknown
	}
	venues, err := s.Search(ctx, lat, lng, "", typeLookupRadiusM)
	if err != nil {
		log.Debug().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("place type lookup failed")
		return place.TypeUnknown
	}
	if len(venues) == 0 {
		return place.TypeUnknown
	}
	return Categorize(venues[0].Types)
}

// CategoryFor picks the search category for a place kind, then the requested
// category, then bar.
func CategoryFor(kind, requested string) string {
	if c, ok := categoryByKind[strings.ToLower(kind)]; ok {
		return c
	}
	if requested != "" {
		return requested
	}
	return defaultCategory
}

type RecommendRequest struct {
	Latitude     float64
	Longitude    float64
	Kind         string
	Category     string
	IgnoreRadius bool
}

// Recommend returns up to ten well rated, operational venues near the
// request, in random order. Lookup failures return an empty list.
func Recommend(ctx context.Context, s PlaceSearcher, req RecommendRequest, rng *rand.Rand) []Venue {
	if s == nil {
		return []Venue{}
	}
	radius := RecommendRadiusM
	if req.IgnoreRadius {
		radius = 0
	}
	venues, err := s.Search(ctx, req.Latitude, req.Longitude, CategoryFor(req.Kind, req.Category), radius)
	if err != nil {
		log.Warn().Err(err).Msg("nearby search failed")
		return []Venue{}
	}

	picked := make([]Venue, 0, len(venues))
	for _, v := range venues {
		if recommendable(v) {
			picked = append(picked, v)
		}
	}

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	if len(picked) > maxRecommended {
		picked = picked[:maxRecommended]
	}
	return picked
}

func recommendable(v Venue) bool {
	if v.Rating < minRating || v.UserRatingsTotal < minRatingsTotal || len(v.Photos) == 0 {
		return false
	}
	if v.BusinessStatus != "OPERATIONAL" || len(v.Types) == 0 {
		return false
	}
	for _, t := range excludedVenueTypes {
		if has(v.Types, t) {
			return false
		}
	}
	name := strings.ToLower(v.Name)
	for _, w := range blockedNameWords {
		if strings.Contains(name, w) {
			return false
		}
	}
	return true
}

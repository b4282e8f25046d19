package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	defaultGoogleURL = "https://maps.googleapis.com/maps/api"
	geocodeCacheTTL  = 24 * time.Hour
)

// Address is one reverse geocoding result.
type Address struct {
	Name             string   `json:"name"`
	Street           string   `json:"street,omitempty"`
	City             string   `json:"city,omitempty"`
	Region           string   `json:"region,omitempty"`
	Country          string   `json:"country,omitempty"`
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id,omitempty"`
	Types            []string `json:"types,omitempty"`
}

type Photo struct {
	Reference string `json:"photo_reference"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Venue is one nearby search result.
type Venue struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	BusinessStatus   string   `json:"business_status"`
	Types            []string `json:"types"`
	Photos           []Photo  `json:"photos,omitempty"`
}

type Geocoder interface {
	Geocode(ctx context.Context, lat, lng float64) ([]Address, error)
}

type PlaceSearcher interface {
	Search(ctx context.Context, lat, lng float64, category string, radiusM int) ([]Venue, error)
}

// Google talks to the Geocoding and Places Nearby Search web services.
type Google struct {
	apiKey  string
	baseURL string
	http    HTTPClient
	policy  RetryPolicy
	cache   *otter.Cache[string, []Address]
}

type GoogleOption func(*Google)

func WithRetryPolicy(p RetryPolicy) GoogleOption {
	return func(g *Google) { g.policy = p }
}

func WithBaseURL(u string) GoogleOption {
	return func(g *Google) {
		if u != "" {
			g.baseURL = u
		}
	}
}

func NewGoogle(apiKey string, hc HTTPClient, opts ...GoogleOption) *Google {
	if hc == nil {
		hc = http.DefaultClient
	}
	g := &Google{
		apiKey:  apiKey,
		baseURL: defaultGoogleURL,
		http:    hc,
		policy:  DefaultRetryPolicy(),
		cache: otter.Must(&otter.Options[string, []Address]{
			MaximumSize:      10_000,
			InitialCapacity:  256,
			ExpiryCalculator: otter.ExpiryWriting[string, []Address](geocodeCacheTTL),
		}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string             `json:"formatted_address"`
		PlaceID           string             `json:"place_id"`
		Types             []string           `json:"types"`
		AddressComponents []addressComponent `json:"address_components"`
	} `json:"results"`
}

// Geocode reverse geocodes a coordinate. Results are cached per ~1 m cell.
func (g *Google) Geocode(ctx context.Context, lat, lng float64) ([]Address, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: google api key not configured", ErrLookupFailed)
	}
	key := fmt.Sprintf("%.5f,%.5f", lat, lng)
	if cached, ok := g.cache.GetIfPresent(key); ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("latlng", latLng(lat, lng))
	q.Set("key", g.apiKey)

	var resp geocodeResponse
	if err := getJSON(ctx, g.http, g.policy, g.baseURL+"/geocode/json?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("%w: geocode status %s %s", ErrLookupFailed, resp.Status, resp.ErrorMessage)
	}

	addresses := make([]Address, 0, len(resp.Results))
	for _, r := range resp.Results {
		a := Address{FormattedAddress: r.FormattedAddress, PlaceID: r.PlaceID, Types: r.Types}
		var number, route string
		for _, c := range r.AddressComponents {
			switch {
			case has(c.Types, "point_of_interest"), has(c.Types, "establishment"), has(c.Types, "premise"):
				if a.Name == "" {
					a.Name = c.LongName
				}
			case has(c.Types, "street_number"):
				number = c.LongName
			case has(c.Types, "route"):
				route = c.LongName
			case has(c.Types, "locality"), has(c.Types, "postal_town"):
				a.City = c.LongName
			case has(c.Types, "administrative_area_level_1"):
				a.Region = c.LongName
			case has(c.Types, "country"):
				a.Country = c.LongName
			}
		}
		a.Street = joinNonEmpty(number, route)
		if a.Name == "" {
			a.Name = a.Street
		}
		addresses = append(addresses, a)
	}
	g.cache.Set(key, addresses)
	return addresses, nil
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		Vicinity         string   `json:"vicinity"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		BusinessStatus   string   `json:"business_status"`
		Types            []string `json:"types"`
		Photos           []Photo  `json:"photos"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Search runs a nearby search. An empty category searches any type and a
// radiusM of zero leaves the radius to the service.
func (g *Google) Search(ctx context.Context, lat, lng float64, category string, radiusM int) ([]Venue, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: google api key not configured", ErrLookupFailed)
	}
	q := url.Values{}
	q.Set("location", latLng(lat, lng))
	if radiusM > 0 {
		q.Set("radius", strconv.Itoa(radiusM))
	}
	if category != "" {
		q.Set("type", category)
	}
	q.Set("key", g.apiKey)

	var resp nearbyResponse
	if err := getJSON(ctx, g.http, g.policy, g.baseURL+"/place/nearbysearch/json?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("%w: nearby search status %s %s", ErrLookupFailed, resp.Status, resp.ErrorMessage)
	}

	venues := make([]Venue, 0, len(resp.Results))
	for _, r := range resp.Results {
		venues = append(venues, Venue{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			Vicinity:         r.Vicinity,
			Latitude:         r.Geometry.Location.Lat,
			Longitude:        r.Geometry.Location.Lng,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			BusinessStatus:   r.BusinessStatus,
			Types:            r.Types,
			Photos:           r.Photos,
		})
	}
	return venues, nil
}

func latLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func has(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

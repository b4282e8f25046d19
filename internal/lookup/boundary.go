package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"backend-everywhere/internal/shared/geo"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	boundaryCacheTTL    = 30 * 24 * time.Hour
)

var ErrBoundaryNotFound = errors.New("city boundary not found")

// Boundary resolves city bounding boxes from Nominatim. Boxes are cached in
// Redis when a client is configured.
type Boundary struct {
	baseURL   string
	userAgent string
	http      HTTPClient
	policy    RetryPolicy
	cache     *cache.Cache[string]
}

func NewBoundary(baseURL, userAgent string, hc HTTPClient, rdb *redis.Client) *Boundary {
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	b := &Boundary{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      hc,
		policy:    DefaultRetryPolicy(),
	}
	if rdb != nil {
		b.cache = cache.New[string](redisstore.NewRedis(rdb, store.WithExpiration(boundaryCacheTTL)))
	}
	return b
}

func (b *Boundary) WithRetryPolicy(p RetryPolicy) *Boundary {
	b.policy = p
	return b
}

type nominatimPlace struct {
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"`
}

// City returns the bounding box of the named city.
func (b *Boundary) City(ctx context.Context, name string) (geo.Box, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return geo.Box{}, fmt.Errorf("%w: empty city name", ErrBoundaryNotFound)
	}
	key := "city-boundary:" + strings.ToLower(name)

	if b.cache != nil {
		if raw, err := b.cache.Get(ctx, key); err == nil {
			var box geo.Box
			if err := json.Unmarshal([]byte(raw), &box); err == nil {
				return box, nil
			}
		}
	}

	q := url.Values{}
	q.Set("city", name)
	q.Set("format", "json")
	q.Set("limit", "1")
	header := http.Header{}
	if b.userAgent != "" {
		header.Set("User-Agent", b.userAgent)
	}

	var places []nominatimPlace
	if err := getJSON(ctx, b.http, b.policy, b.baseURL+"/search?"+q.Encode(), header, &places); err != nil {
		return geo.Box{}, err
	}
	if len(places) == 0 || len(places[0].BoundingBox) != 4 {
		return geo.Box{}, fmt.Errorf("%w: %s", ErrBoundaryNotFound, name)
	}
	box, err := parseBoundingBox(places[0].BoundingBox)
	if err != nil {
		return geo.Box{}, fmt.Errorf("%w: %s: %w", ErrLookupFailed, name, err)
	}

	if b.cache != nil {
		raw, _ := json.Marshal(box)
		if err := b.cache.Set(ctx, key, string(raw)); err != nil {
			log.Warn().Err(err).Str("city", name).Msg("caching city boundary")
		}
	}
	return box, nil
}

// parseBoundingBox reads Nominatim's [south, north, west, east] strings.
func parseBoundingBox(raw []string) (geo.Box, error) {
	var v [4]float64
	for i, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return geo.Box{}, err
		}
		v[i] = f
	}
	return geo.Box{MinLat: v[0], MaxLat: v[1], MinLng: v[2], MaxLng: v[3]}, nil
}

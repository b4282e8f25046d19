package insights

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/lookup"
	"backend-everywhere/internal/place"
	"backend-everywhere/internal/shared/geo"
	"backend-everywhere/internal/stats"
	"backend-everywhere/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const defaultWorkers = 4

var ErrNoTopSpot = errors.New("no top spot yet")

// Boundaries resolves a city name to its bounding box.
type Boundaries interface {
	City(ctx context.Context, name string) (geo.Box, error)
}

type Settings struct {
	CityName    string
	CityAreaKm2 float64
	Location    *time.Location
	// Workers bounds concurrent geocoding and type lookups per request.
	Workers int
}

// Service answers read-side questions about a user's places and trail.
type Service struct {
	places     store.PlaceStore
	trail      store.TrailStore
	geocoder   lookup.Geocoder
	searcher   lookup.PlaceSearcher
	boundaries Boundaries
	settings   Settings
	now        func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(places store.PlaceStore, trail store.TrailStore, geocoder lookup.Geocoder, searcher lookup.PlaceSearcher, boundaries Boundaries, settings Settings) *Service {
	if settings.Workers <= 0 {
		settings.Workers = defaultWorkers
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.CityAreaKm2 <= 0 {
		settings.CityAreaKm2 = stats.CityAreaKm2
	}
	return &Service{
		places:     places,
		trail:      trail,
		geocoder:   geocoder,
		searcher:   searcher,
		boundaries: boundaries,
		settings:   settings,
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (s *Service) load(ctx context.Context, userID string) ([]place.Record, place.HomeWork, error) {
	records, err := s.places.Places(ctx, userID)
	if err != nil {
		return nil, place.HomeWork{}, fmt.Errorf("%w: %w", place.ErrStorageUnavailable, err)
	}
	return records, place.Classify(records), nil
}

func (s *Service) loadTrail(ctx context.Context, userID string) ([]fix.Fix, error) {
	trail, err := s.trail.Trail(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", place.ErrStorageUnavailable, err)
	}
	return trail, nil
}

// Places lists the ranked places of userID with home and work applied.
// Places without a stored type are categorized from the nearest venue.
func (s *Service) Places(ctx context.Context, userID string) ([]PlaceView, error) {
	records, hw, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, place.Annotate(records, hw)), nil
}

func (s *Service) HomeWork(ctx context.Context, userID string) (HomeWorkView, error) {
	_, hw, err := s.load(ctx, userID)
	if err != nil {
		return HomeWorkView{}, err
	}

	var picked []place.Record
	if hw.Home != nil {
		home := *hw.Home
		home.Type = place.TypeHome
		picked = append(picked, home)
	}
	if hw.Work != nil {
		work := *hw.Work
		work.Type = place.TypeWork
		picked = append(picked, work)
	}
	views := s.describe(ctx, picked)

	var out HomeWorkView
	for i := range views {
		v := views[i]
		if v.Type == place.TypeHome {
			out.Home = &v
		} else {
			out.Work = &v
		}
	}
	return out, nil
}

// TopSpot is the longest-dwelled place that is neither home nor work.
func (s *Service) TopSpot(ctx context.Context, userID string) (PlaceView, error) {
	records, hw, err := s.load(ctx, userID)
	if err != nil {
		return PlaceView{}, err
	}
	top := place.TopSpot(place.Annotate(records, hw), hw.Home, hw.Work)
	if top == nil {
		return PlaceView{}, ErrNoTopSpot
	}
	return s.describe(ctx, []place.Record{*top})[0], nil
}

func (s *Service) Weekly(ctx context.Context, userID string, offset int) (WeeklyView, error) {
	trail, err := s.loadTrail(ctx, userID)
	if err != nil {
		return WeeklyView{}, err
	}
	week := stats.Weekly(trail, offset, s.now(), s.settings.Location)
	return WeeklyView{Week: week, Label: week.Label()}, nil
}

func (s *Service) Stays(ctx context.Context, userID string) (StaysView, error) {
	trail, err := s.loadTrail(ctx, userID)
	if err != nil {
		return StaysView{}, err
	}
	return StaysView{
		Days:           stats.StayHistogram(trail, stats.MinStay, s.settings.Location),
		MinStayMinutes: stats.MinStay.Minutes(),
	}, nil
}

// Explored estimates the explored share of the city and of the world. The
// city is taken from at when given, else from the configured city name.
func (s *Service) Explored(ctx context.Context, userID string, widthM float64, at *Coordinate) (ExploredView, error) {
	trail, err := s.loadTrail(ctx, userID)
	if err != nil {
		return ExploredView{}, err
	}

	city := s.settings.CityName
	if at != nil {
		if name := lookup.CityName(ctx, s.geocoder, at.Latitude, at.Longitude); name != "" {
			city = name
		}
	}

	var box *geo.Box
	if s.boundaries != nil && city != "" {
		b, err := s.boundaries.City(ctx, city)
		if err != nil {
			log.Warn().Err(err).Str("city", city).Msg("city boundary unavailable")
		} else {
			box = &b
		}
	}

	return ExploredView{
		Exploration: stats.Explore(trail, widthM, box, s.settings.CityAreaKm2),
		City:        city,
		Cropped:     stats.UsableBox(box),
	}, nil
}

func (s *Service) Recommend(ctx context.Context, req lookup.RecommendRequest) []lookup.Venue {
	s.rngMu.Lock()
	seed := s.rng.Uint64()
	s.rngMu.Unlock()
	return lookup.Recommend(ctx, s.searcher, req, rand.New(rand.NewPCG(seed, seed>>1)))
}

// describe names and categorizes records concurrently, keeping their order.
func (s *Service) describe(ctx context.Context, records []place.Record) []PlaceView {
	views := make([]PlaceView, len(records))
	p := pool.New().WithMaxGoroutines(s.settings.Workers)
	for i, r := range records {
		p.Go(func() {
			if r.Type == place.TypeUnknown {
				r.Type = lookup.DetectType(ctx, s.searcher, r.Latitude, r.Longitude)
			}
			name := lookup.PlaceName(ctx, s.geocoder, r.Latitude, r.Longitude)
			views[i] = PlaceView{
				Record: r,
				Name:   name,
				Icon:   place.Icon(r.Type),
				Label:  place.Label(r.Type, name),
			}
		})
	}
	p.Wait()
	return views
}

// anchor resolves the location of the user's home or work place.
func (s *Service) anchor(ctx context.Context, userID, kind string) (*Coordinate, error) {
	var r *place.Record
	switch place.Type(kind) {
	case place.TypeHome, place.TypeWork:
		_, hw, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		r = hw.Home
		if place.Type(kind) == place.TypeWork {
			r = hw.Work
		}
	}
	if r == nil {
		return nil, errNoCoordinate
	}
	return &Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}, nil
}

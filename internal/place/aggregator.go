package place

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/shared/geo"
)

const (
	// RadiusKm is how close two positions must be to count as the same place.
	RadiusKm = 0.1
	// MaxPlaces is how many places are retained per user.
	MaxPlaces = 10
)

// Store holds each user's place collection.
type Store interface {
	Places(ctx context.Context, userID string) ([]Record, error)
	ReplacePlaces(ctx context.Context, userID string, records []Record) error
}

type Aggregator struct {
	store    Store
	radiusKm float64
	limit    int
	now      func() time.Time
	fixTime  bool
	onUpdate func(userID string, records []Record)
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithFixTime measures dwell time with fix timestamps instead of the wall
// clock. Used when replaying recorded trails.
func WithFixTime() Option {
	return func(a *Aggregator) { a.fixTime = true }
}

func WithRadiusKm(km float64) Option {
	return func(a *Aggregator) { a.radiusKm = km }
}

func WithLimit(n int) Option {
	return func(a *Aggregator) { a.limit = n }
}

// WithOnUpdate registers a callback run after every successful write.
func WithOnUpdate(fn func(userID string, records []Record)) Option {
	return func(a *Aggregator) { a.onUpdate = fn }
}

func NewAggregator(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:    store,
		radiusKm: RadiusKm,
		limit:    MaxPlaces,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Observe advances the session with one fix. Dwell time is attributed to
// the departed place only when the user moves beyond the radius. On a store
// failure the session is left untouched.
func (a *Aggregator) Observe(ctx context.Context, s *Session, f fix.Fix) error {
	now := a.clock(f)

	current, arrival, ok := s.Current()
	if !ok {
		s.settle(f, now)
		return nil
	}

	if geo.HaversineKm(current.Latitude, current.Longitude, f.Latitude, f.Longitude) <= a.radiusKm {
		return nil
	}

	spent := float64(now.Sub(arrival).Milliseconds()) / 60000
	if spent < 0 {
		spent = 0
	}
	if _, err := a.MergeOrCreate(ctx, s.UserID, current.Latitude, current.Longitude, spent); err != nil {
		return err
	}
	s.settle(f, now)
	return nil
}

// Sink adapts Observe for a fix.Ingestor.
func (a *Aggregator) Sink(s *Session) fix.Sink {
	return fix.SinkFunc(func(ctx context.Context, f fix.Fix) error {
		return a.Observe(ctx, s, f)
	})
}

// MergeOrCreate adds a visit of spent minutes at (lat, lng) to the user's
// places and stores the ranked top records in place of the old collection.
func (a *Aggregator) MergeOrCreate(ctx context.Context, userID string, lat, lng, spent float64) ([]Record, error) {
	records, err := a.store.Places(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load places: %w", ErrStorageUnavailable, err)
	}

	updated := merge(records, lat, lng, spent, a.radiusKm, a.limit)
	if err := a.store.ReplacePlaces(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("%w: replace places: %w", ErrStorageUnavailable, err)
	}

	if a.onUpdate != nil {
		a.onUpdate(userID, slices.Clone(updated))
	}
	return updated, nil
}

func (a *Aggregator) clock(f fix.Fix) time.Time {
	if a.fixTime {
		return f.Time()
	}
	return a.now()
}

func merge(records []Record, lat, lng, spent, radiusKm float64, limit int) []Record {
	out := slices.Clone(records)

	matched := false
	for i := range out {
		if geo.HaversineKm(out[i].Latitude, out[i].Longitude, lat, lng) <= radiusKm {
			out[i].Count++
			out[i].TimeSpent += spent
			matched = true
			break
		}
	}
	if !matched {
		out = append(out, Record{Latitude: lat, Longitude: lng, Count: 1, TimeSpent: spent, Type: TypeUnknown})
	}

	Rank(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Rank orders records by time spent, then visit count, both descending.
func Rank(records []Record) {
	slices.SortStableFunc(records, func(x, y Record) int {
		if c := cmp.Compare(y.TimeSpent, x.TimeSpent); c != 0 {
			return c
		}
		return cmp.Compare(y.Count, x.Count)
	})
}

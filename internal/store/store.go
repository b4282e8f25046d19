package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
)

var ErrUnknownBackend = errors.New("unknown store backend")

const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// PlaceStore keeps the ranked place collection of each user. ReplacePlaces
// deletes the old collection before writing the new one and is not atomic.
type PlaceStore interface {
	place.Store
	DeletePlaces(ctx context.Context, userID string) error
}

// TrailStore keeps the append-only fix history of each user.
type TrailStore interface {
	AddFix(ctx context.Context, userID string, f fix.Fix) error
	Trail(ctx context.Context, userID string) ([]fix.Fix, error)
	DeleteTrail(ctx context.Context, userID string) error
}

type Store interface {
	PlaceStore
	TrailStore
}

// TrailSink records every accepted fix for userID.
func TrailSink(ts TrailStore, userID string) fix.Sink {
	return fix.SinkFunc(func(ctx context.Context, f fix.Fix) error {
		return ts.AddFix(ctx, userID, f)
	})
}

func validateRecords(records []place.Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// keepValid drops stored records that fail validation so corrupt rows never
// reach aggregation or classification.
func keepValid(userID string, records []place.Record) []place.Record {
	out := records[:0]
	for i, r := range records {
		if err := r.Validate(); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Int("rank", i).Msg("skipping invalid stored place")
			continue
		}
		out = append(out, r)
	}
	return out
}

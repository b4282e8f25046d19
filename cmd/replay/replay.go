package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
	"backend-everywhere/internal/shared/geo"
	"backend-everywhere/internal/stats"
	"backend-everywhere/internal/store"
)

var errEmptyTrail = errors.New("trail has no valid fixes")

type options struct {
	UserID      string
	Ingest      fix.Options
	WidthM      float64
	CityAreaKm2 float64
	CityBox     *geo.Box
	WeekOffset  int
	Location    *time.Location
}

type report struct {
	Fixes       int
	Skipped     int
	Places      []place.Record
	HomeWork    place.HomeWork
	TopSpot     *place.Record
	Week        stats.Week
	Stays       [7]int
	Exploration stats.Exploration
}

// replay runs a recorded trail through ingestion and aggregation against an
// in-memory store. Dwell time follows the fix timestamps and the week is
// counted relative to the last fix.
func replay(ctx context.Context, fixes []fix.Fix, opts options) (report, error) {
	if len(fixes) == 0 {
		return report{}, errEmptyTrail
	}

	mem := store.NewMemory()
	session := place.NewSession(opts.UserID)
	agg := place.NewAggregator(mem, place.WithFixTime())
	src := fix.NewReplaySource(fixes)

	in := fix.NewIngestor(src, opts.UserID, opts.Ingest, store.TrailSink(mem, opts.UserID), agg.Sink(session))
	if err := in.Start(ctx); err != nil {
		return report{}, err
	}
	playErr := src.Play(ctx)
	if err := in.Stop(); err != nil {
		return report{}, err
	}
	if playErr != nil {
		return report{}, fmt.Errorf("play trail: %w", playErr)
	}

	records, err := mem.Places(ctx, opts.UserID)
	if err != nil {
		return report{}, err
	}
	trail, err := mem.Trail(ctx, opts.UserID)
	if err != nil {
		return report{}, err
	}

	hw := place.Classify(records)
	annotated := place.Annotate(records, hw)
	last := trail[len(trail)-1].Time()

	return report{
		Fixes:       len(trail),
		Places:      annotated,
		HomeWork:    hw,
		TopSpot:     place.TopSpot(annotated, hw.Home, hw.Work),
		Week:        stats.Weekly(trail, opts.WeekOffset, last, opts.Location),
		Stays:       stats.StayHistogram(trail, stats.MinStay, opts.Location),
		Exploration: stats.Explore(trail, opts.WidthM, opts.CityBox, opts.CityAreaKm2),
	}, nil
}

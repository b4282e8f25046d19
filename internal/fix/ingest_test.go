package fix

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	fixes []Fix
	err   error
}

func (r *recorder) HandleFix(_ context.Context, f Fix) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = append(r.fixes, f)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fixes)
}

func at(ms int64, lat, lng float64) Fix {
	return Fix{Latitude: lat, Longitude: lng, Timestamp: ms}
}

func TestIngestorForwardsToAllSinks(t *testing.T) {
	src := NewPushSource()
	a, b := &recorder{}, &recorder{}
	in := NewIngestor(src, "user-1", Options{}, a, b)
	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := src.Push("user-1", at(0, 53.35, -6.27), at(1000, 53.36, -6.27)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if a.count() != 2 || b.count() != 2 {
		t.Fatalf("expected both sinks to receive 2 fixes, got %d and %d", a.count(), b.count())
	}
}

func TestIngestorThrottlesByTimeAndDistance(t *testing.T) {
	src := NewPushSource()
	rec := &recorder{}
	in := NewIngestor(src, "user-1", Options{MinInterval: time.Second, MinDistanceM: 10}, rec)
	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	_ = src.Push("user-1",
		at(0, 53.3500, -6.27),
		at(500, 53.3510, -6.27),  // too soon
		at(2000, 53.35001, -6.27), // ~1 m away
		at(3000, 53.3510, -6.27),  // ~111 m away, accepted
	)
	if rec.count() != 2 {
		t.Fatalf("expected 2 accepted fixes, got %d", rec.count())
	}
	if rec.fixes[1].Timestamp != 3000 {
		t.Fatalf("unexpected second fix %+v", rec.fixes[1])
	}
}

func TestIngestorStopIsIdempotentAndFinal(t *testing.T) {
	src := NewPushSource()
	rec := &recorder{}
	in := NewIngestor(src, "user-1", Options{}, rec)
	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = src.Push("user-1", at(0, 1, 1))

	if err := in.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := in.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if in.Running() {
		t.Fatalf("expected stopped ingestor")
	}
	if err := src.Push("user-1", at(1000, 2, 2)); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("expected not subscribed, got %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected no emission after stop, got %d", rec.count())
	}
}

func TestIngestorStaleCallbackIgnored(t *testing.T) {
	src := NewReplaySource(nil)
	rec := &recorder{}
	in := NewIngestor(src, "user-1", Options{}, rec)
	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stale := src.onFix
	_ = in.Stop()

	stale(at(0, 1, 1))
	if rec.count() != 0 {
		t.Fatalf("callback from a stopped subscription must not emit")
	}
}

func TestIngestorRestart(t *testing.T) {
	src := NewPushSource()
	rec := &recorder{}
	in := NewIngestor(src, "user-1", Options{MinInterval: time.Hour}, rec)

	_ = in.Start(context.Background())
	_ = src.Push("user-1", at(0, 1, 1))
	_ = in.Stop()

	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	// Throttle state does not survive a restart.
	_ = src.Push("user-1", at(1000, 1, 1))
	if rec.count() != 2 {
		t.Fatalf("expected 2 fixes across restart, got %d", rec.count())
	}
}

func TestIngestorSinkErrorDoesNotStop(t *testing.T) {
	src := NewPushSource()
	failing := &recorder{err: errors.New("store down")}
	in := NewIngestor(src, "user-1", Options{}, failing)
	_ = in.Start(context.Background())

	_ = src.Push("user-1", at(0, 1, 1), at(1000, 2, 2))
	if failing.count() != 2 {
		t.Fatalf("expected ingestion to continue after sink errors")
	}
	if !in.Running() {
		t.Fatalf("expected ingestor to keep running")
	}
}

func TestIngestorPermissionDenied(t *testing.T) {
	src := NewPushSource()
	src.SetPermission("user-1", false)
	in := NewIngestor(src, "user-1", ForegroundOptions())

	if err := in.Start(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if in.Running() {
		t.Fatalf("denied ingestor must not run")
	}

	src.SetPermission("user-1", true)
	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("start after grant: %v", err)
	}
}

func TestSinkFunc(t *testing.T) {
	called := false
	var s Sink = SinkFunc(func(context.Context, Fix) error {
		called = true
		return nil
	})
	_ = s.HandleFix(context.Background(), Fix{})
	if !called {
		t.Fatalf("expected sink func to be called")
	}
}

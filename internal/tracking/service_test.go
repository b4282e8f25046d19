package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
	"backend-everywhere/internal/store"
)

var (
	home = fix.Fix{Latitude: 53.3510, Longitude: -6.2774}
	work = fix.Fix{Latitude: 53.3385, Longitude: -6.2691}
	t0   = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
)

func at(f fix.Fix, offset time.Duration) fix.Fix {
	f.Timestamp = t0.Add(offset).UnixMilli()
	return f
}

func newTestService() (*Service, *store.Memory) {
	mem := store.NewMemory()
	agg := place.NewAggregator(mem, place.WithFixTime())
	return NewService(fix.NewPushSource(), agg, mem, mem), mem
}

func TestStartPushStop(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted", Mode: ModeVisit})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.ID == "" || session.UserID != "user-1" || session.Mode != ModeVisit || session.State != "unknown" {
		t.Fatalf("unexpected session %+v", session)
	}

	result, err := svc.Push("user-1", []fix.Fix{at(home, 0), at(work, time.Hour)})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if result.Received != 2 {
		t.Fatalf("expected 2 received, got %d", result.Received)
	}

	places, _ := mem.Places(ctx, "user-1")
	if len(places) != 1 || places[0].Count != 1 || places[0].TimeSpent != 60 {
		t.Fatalf("unexpected places %+v", places)
	}
	trail, _ := mem.Trail(ctx, "user-1")
	if len(trail) != 2 {
		t.Fatalf("expected 2 trail fixes, got %d", len(trail))
	}

	status, ok := svc.Status("user-1")
	if !ok || status.State != "settled" {
		t.Fatalf("expected settled session, got %+v %v", status, ok)
	}

	svc.Stop("user-1")
	svc.Stop("user-1")
	if _, ok := svc.Status("user-1"); ok {
		t.Fatalf("expected no session after stop")
	}
	if _, err := svc.Push("user-1", []fix.Fix{at(home, 2*time.Hour)}); !errors.Is(err, fix.ErrNotSubscribed) {
		t.Fatalf("expected not subscribed, got %v", err)
	}
}

func TestStartPermissionDenied(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Start(context.Background(), "user-1", StartRequest{Permission: "denied"})
	if !errors.Is(err, fix.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, ok := svc.Status("user-1"); ok {
		t.Fatalf("expected no session")
	}
}

func TestStartDeniedStopsRunningSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Start(ctx, "user-1", StartRequest{Permission: "denied"}); !errors.Is(err, fix.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, ok := svc.Status("user-1"); ok {
		t.Fatalf("expected session to be stopped")
	}
}

func TestStartSameModeKeepsSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted", Mode: ModeVisit})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	again, err := svc.Start(ctx, "user-1", StartRequest{Permission: "Granted"})
	if err != nil {
		t.Fatalf("start again: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected same session, got %s and %s", first.ID, again.ID)
	}
}

func TestStartOtherModeRestarts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.Start(ctx, "user-1", StartRequest{Permission: "granted", Mode: ModeVisit})
	if _, err := svc.Push("user-1", []fix.Fix{at(home, 0)}); err != nil {
		t.Fatalf("push: %v", err)
	}

	second, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted", Mode: ModeForeground})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.ID == first.ID || second.Mode != ModeForeground {
		t.Fatalf("expected a new foreground session, got %+v", second)
	}
	if second.State != "unknown" {
		t.Fatalf("expected fresh session state, got %s", second.State)
	}
}

func TestStartInvalidMode(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Start(context.Background(), "user-1", StartRequest{Permission: "granted", Mode: "walking"}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected invalid mode, got %v", err)
	}
}

func TestPushOrdersFixes(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.Push("user-1", []fix.Fix{at(work, 90*time.Minute), at(home, 0)}); err != nil {
		t.Fatalf("push: %v", err)
	}
	places, _ := mem.Places(ctx, "user-1")
	if len(places) != 1 || places[0].TimeSpent != 90 {
		t.Fatalf("unexpected places %+v", places)
	}
	if places[0].Latitude != home.Latitude {
		t.Fatalf("expected dwell at home, got %+v", places[0])
	}
}

func TestPushRejectsInvalidFix(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	bad := at(home, 0)
	bad.Latitude = 120
	if _, err := svc.Push("user-1", []fix.Fix{at(home, 0), bad}); !errors.Is(err, fix.ErrInvalidFix) {
		t.Fatalf("expected invalid fix, got %v", err)
	}
	trail, _ := mem.Trail(ctx, "user-1")
	if len(trail) != 0 {
		t.Fatalf("expected nothing recorded, got %d fixes", len(trail))
	}
}

func TestCloseStopsAll(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, id := range []string{"user-1", "user-2"} {
		if _, err := svc.Start(ctx, id, StartRequest{Permission: "granted"}); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	svc.Close()
	for _, id := range []string{"user-1", "user-2"} {
		if _, ok := svc.Status(id); ok {
			t.Fatalf("expected %s stopped", id)
		}
	}
}

func TestModeOptions(t *testing.T) {
	if opts, ok := ModeForeground.Options(); !ok || opts != fix.ForegroundOptions() {
		t.Fatalf("unexpected foreground options %+v", opts)
	}
	if opts, ok := ModeVisit.Options(); !ok || opts != fix.VisitOptions() {
		t.Fatalf("unexpected visit options %+v", opts)
	}
	if _, ok := Mode("bogus").Options(); ok {
		t.Fatalf("expected unknown mode")
	}
}

func TestForget(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, "user-1", StartRequest{Permission: "granted"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Push("user-1", []fix.Fix{at(home, 0), at(work, time.Hour)}); err != nil {
		t.Fatalf("push: %v", err)
	}

	if err := svc.Forget(ctx, "user-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, ok := svc.Status("user-1"); ok {
		t.Fatalf("expected tracking stopped")
	}
	places, _ := mem.Places(ctx, "user-1")
	trail, _ := mem.Trail(ctx, "user-1")
	if len(places) != 0 || len(trail) != 0 {
		t.Fatalf("expected history deleted, got %d places and %d fixes", len(places), len(trail))
	}
}

type failingTrail struct{ store.TrailStore }

func (failingTrail) DeleteTrail(context.Context, string) error { return errors.New("trail down") }

func TestForgetStorageFailure(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(fix.NewPushSource(), place.NewAggregator(mem), failingTrail{mem}, mem)
	if err := svc.Forget(context.Background(), "user-1"); !errors.Is(err, place.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}

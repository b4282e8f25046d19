package fix

import (
	"context"
	"sort"
	"sync"
)

// ReplaySource plays back a recorded trail to its subscriber.
type ReplaySource struct {
	fixes []Fix

	mu    sync.Mutex
	onFix func(Fix)
	sub   Subscription
}

// NewReplaySource sorts a copy of fixes by timestamp.
func NewReplaySource(fixes []Fix) *ReplaySource {
	sorted := append([]Fix(nil), fixes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	return &ReplaySource{fixes: sorted}
}

func (r *ReplaySource) Subscribe(_ context.Context, userID string, _ Options, onFix func(Fix)) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onFix != nil {
		return Subscription{}, ErrAlreadySubscribed
	}
	r.onFix = onFix
	r.sub = Subscription{ID: "replay", UserID: userID}
	return r.sub, nil
}

func (r *ReplaySource) Unsubscribe(sub Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub == r.sub {
		r.onFix = nil
	}
	return nil
}

// Play delivers every fix until the trail ends, ctx is done or the
// subscriber goes away.
func (r *ReplaySource) Play(ctx context.Context) error {
	for _, f := range r.fixes {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.mu.Lock()
		onFix := r.onFix
		r.mu.Unlock()
		if onFix == nil {
			return ErrNotSubscribed
		}
		onFix(f)
	}
	return nil
}

func (r *ReplaySource) Len() int {
	return len(r.fixes)
}

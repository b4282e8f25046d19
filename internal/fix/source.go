package fix

import (
	"context"
	"strconv"
	"sync"
)

// Source delivers fixes to a registered callback.
type Source interface {
	Subscribe(ctx context.Context, userID string, opts Options, onFix func(Fix)) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

type Subscription struct {
	ID     string
	UserID string
}

type pushSub struct {
	Subscription
	opts  Options
	onFix func(Fix)
}

// PushSource receives fixes that devices upload and hands them to the
// subscription registered for that user.
type PushSource struct {
	mu     sync.Mutex
	subs   map[string]*pushSub
	denied map[string]bool
	seq    int
}

func NewPushSource() *PushSource {
	return &PushSource{
		subs:   map[string]*pushSub{},
		denied: map[string]bool{},
	}
}

// SetPermission records the OS permission state reported by the user's device.
func (s *PushSource) SetPermission(userID string, granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if granted {
		delete(s.denied, userID)
		return
	}
	s.denied[userID] = true
}

func (s *PushSource) Subscribe(_ context.Context, userID string, opts Options, onFix func(Fix)) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.denied[userID] {
		return Subscription{}, ErrPermissionDenied
	}
	if _, ok := s.subs[userID]; ok {
		return Subscription{}, ErrAlreadySubscribed
	}

	s.seq++
	sub := &pushSub{
		Subscription: Subscription{ID: strconv.Itoa(s.seq), UserID: userID},
		opts:         opts,
		onFix:        onFix,
	}
	s.subs[userID] = sub
	return sub.Subscription, nil
}

func (s *PushSource) Unsubscribe(sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.subs[sub.UserID]; ok && current.ID == sub.ID {
		delete(s.subs, sub.UserID)
	}
	return nil
}

// Push delivers fixes in order to the user's subscription.
func (s *PushSource) Push(userID string, fixes ...Fix) error {
	s.mu.Lock()
	sub, ok := s.subs[userID]
	s.mu.Unlock()
	if !ok {
		return ErrNotSubscribed
	}

	for _, f := range fixes {
		sub.onFix(f)
	}
	return nil
}

func (s *PushSource) Subscribed(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[userID]
	return ok
}

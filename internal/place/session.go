package place

import (
	"sync"
	"time"

	"backend-everywhere/internal/fix"
)

type State int

const (
	// StateUnknown means no baseline fix has been seen yet.
	StateUnknown State = iota
	// StateSettled means the user is at current since arrival.
	StateSettled
)

func (s State) String() string {
	if s == StateSettled {
		return "settled"
	}
	return "unknown"
}

// Session is the movement state of one tracking session. It lives only in
// memory; Reset on every stop or restart.
type Session struct {
	UserID string

	mu      sync.Mutex
	state   State
	current fix.Fix
	arrival time.Time
}

func NewSession(userID string) *Session {
	return &Session{UserID: userID}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the settled fix and its arrival time.
func (s *Session) Current() (fix.Fix, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSettled {
		return fix.Fix{}, time.Time{}, false
	}
	return s.current, s.arrival, true
}

func (s *Session) settle(f fix.Fix, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSettled
	s.current = f
	s.arrival = at
}

// Reset drops the baseline. The running dwell interval is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnknown
	s.current = fix.Fix{}
	s.arrival = time.Time{}
}

package tracking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
	"backend-everywhere/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidMode = errors.New("invalid tracking mode")

type tracker struct {
	info     Session
	session  *place.Session
	ingestor *fix.Ingestor
}

// Service runs one ingestor per tracking user. Fixes uploaded by devices are
// pushed through the shared source into the user's ingestor, which feeds the
// trail store and the place aggregator.
type Service struct {
	source     *fix.PushSource
	aggregator *place.Aggregator
	trail      store.TrailStore
	places     store.PlaceStore
	now        func() time.Time

	mu       sync.Mutex
	trackers map[string]*tracker
}

func NewService(source *fix.PushSource, aggregator *place.Aggregator, trail store.TrailStore, places store.PlaceStore) *Service {
	return &Service{
		source:     source,
		aggregator: aggregator,
		trail:      trail,
		places:     places,
		now:        time.Now,
		trackers:   map[string]*tracker{},
	}
}

// Start begins tracking userID. A running session in the same mode is
// returned as is; a different mode restarts tracking with a fresh session.
func (s *Service) Start(ctx context.Context, userID string, req StartRequest) (Session, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeVisit
	}
	opts, ok := mode.Options()
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}
	granted := strings.EqualFold(strings.TrimSpace(req.Permission), PermissionGranted)
	s.source.SetPermission(userID, granted)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.trackers[userID]; ok {
		if granted && t.info.Mode == mode && t.ingestor.Running() {
			return s.snapshot(t), nil
		}
		s.stopLocked(userID, t)
	}

	session := place.NewSession(userID)
	sinks := []fix.Sink{}
	if s.trail != nil {
		sinks = append(sinks, store.TrailSink(s.trail, userID))
	}
	sinks = append(sinks, s.aggregator.Sink(session))

	ingestor := fix.NewIngestor(s.source, userID, opts, sinks...)
	if err := ingestor.Start(ctx); err != nil {
		return Session{}, err
	}

	t := &tracker{
		info: Session{
			ID:        uuid.NewString(),
			UserID:    userID,
			Mode:      mode,
			StartedAt: s.now().UTC(),
		},
		session:  session,
		ingestor: ingestor,
	}
	s.trackers[userID] = t
	log.Info().Str("user_id", userID).Str("session_id", t.info.ID).Str("mode", string(mode)).Msg("tracking started")
	return s.snapshot(t), nil
}

// Stop ends tracking for userID. Stopping an idle user is not an error.
func (s *Service) Stop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trackers[userID]; ok {
		s.stopLocked(userID, t)
	}
}

func (s *Service) stopLocked(userID string, t *tracker) {
	if err := t.ingestor.Stop(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("unsubscribe failed")
	}
	t.session.Reset()
	delete(s.trackers, userID)
	log.Info().Str("user_id", userID).Str("session_id", t.info.ID).Msg("tracking stopped")
}

// Push validates fixes and delivers them in timestamp order.
func (s *Service) Push(userID string, fixes []fix.Fix) (PushResult, error) {
	for i, f := range fixes {
		if err := f.Validate(); err != nil {
			return PushResult{}, fmt.Errorf("fix %d: %w", i, err)
		}
	}
	ordered := slices.Clone(fixes)
	slices.SortStableFunc(ordered, func(a, b fix.Fix) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	if err := s.source.Push(userID, ordered...); err != nil {
		return PushResult{}, err
	}
	return PushResult{Received: len(ordered)}, nil
}

// Status reports the running session of userID, if any.
func (s *Service) Status(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[userID]
	if !ok {
		return Session{}, false
	}
	return s.snapshot(t), true
}

// Forget stops tracking userID and deletes the recorded trail and places.
func (s *Service) Forget(ctx context.Context, userID string) error {
	s.Stop(userID)
	if s.trail != nil {
		if err := s.trail.DeleteTrail(ctx, userID); err != nil {
			return fmt.Errorf("%w: delete trail: %w", place.ErrStorageUnavailable, err)
		}
	}
	if s.places != nil {
		if err := s.places.DeletePlaces(ctx, userID); err != nil {
			return fmt.Errorf("%w: delete places: %w", place.ErrStorageUnavailable, err)
		}
	}
	log.Info().Str("user_id", userID).Msg("location history deleted")
	return nil
}

// Close stops every running session.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, t := range s.trackers {
		s.stopLocked(userID, t)
	}
}

func (s *Service) snapshot(t *tracker) Session {
	info := t.info
	info.State = t.session.State().String()
	return info
}

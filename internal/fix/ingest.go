package fix

import (
	"context"
	"sync"

	"backend-everywhere/internal/shared/geo"

	"github.com/rs/zerolog/log"
)

// Sink consumes accepted fixes.
type Sink interface {
	HandleFix(ctx context.Context, f Fix) error
}

type SinkFunc func(ctx context.Context, f Fix) error

func (fn SinkFunc) HandleFix(ctx context.Context, f Fix) error {
	return fn(ctx, f)
}

// Ingestor subscribes to a Source for one user, throttles the stream by
// Options and forwards each accepted fix to its sinks. Deliveries are
// serialized, so sinks never see two fixes of the same user at once.
type Ingestor struct {
	source Source
	userID string
	opts   Options
	sinks  []Sink

	mu      sync.Mutex
	ctx     context.Context
	running bool
	gen     int
	sub     *Subscription
	last    *Fix
}

func NewIngestor(source Source, userID string, opts Options, sinks ...Sink) *Ingestor {
	return &Ingestor{
		source: source,
		userID: userID,
		opts:   opts,
		sinks:  sinks,
	}
}

// Start registers the callback with the source. Calling Start on a running
// ingestor is a no-op.
func (in *Ingestor) Start(ctx context.Context) error {
	in.mu.Lock()
	if in.running {
		in.mu.Unlock()
		return nil
	}
	in.running = true
	in.gen++
	gen := in.gen
	in.ctx = context.WithoutCancel(ctx)
	in.last = nil
	in.mu.Unlock()

	sub, err := in.source.Subscribe(ctx, in.userID, in.opts, in.deliverFunc(gen))

	in.mu.Lock()
	defer in.mu.Unlock()
	if err != nil {
		if in.gen == gen {
			in.running = false
		}
		return err
	}
	if in.gen != gen || !in.running {
		// Stopped while subscribing.
		go func() { _ = in.source.Unsubscribe(sub) }()
		return nil
	}
	in.sub = &sub
	return nil
}

// Stop unregisters the callback. It is safe to call repeatedly. A delivery
// already in progress finishes before Stop returns; none starts afterwards.
func (in *Ingestor) Stop() error {
	in.mu.Lock()
	if !in.running {
		in.mu.Unlock()
		return nil
	}
	in.running = false
	in.gen++
	sub := in.sub
	in.sub = nil
	in.last = nil
	in.mu.Unlock()

	if sub == nil {
		return nil
	}
	return in.source.Unsubscribe(*sub)
}

func (in *Ingestor) Running() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.running
}

func (in *Ingestor) deliverFunc(gen int) func(Fix) {
	return func(f Fix) {
		in.mu.Lock()
		defer in.mu.Unlock()

		if !in.running || in.gen != gen {
			return
		}
		if !in.accept(f) {
			return
		}
		accepted := f
		in.last = &accepted

		for _, sink := range in.sinks {
			if err := sink.HandleFix(in.ctx, f); err != nil {
				log.Warn().Err(err).Str("user_id", in.userID).Int64("timestamp", f.Timestamp).Msg("fix sink failed")
			}
		}
	}
}

func (in *Ingestor) accept(f Fix) bool {
	if in.last == nil {
		return true
	}
	if in.opts.MinInterval > 0 && f.Timestamp-in.last.Timestamp < in.opts.MinInterval.Milliseconds() {
		return false
	}
	if in.opts.MinDistanceM > 0 &&
		geo.HaversineM(in.last.Latitude, in.last.Longitude, f.Latitude, f.Longitude) <= in.opts.MinDistanceM {
		return false
	}
	return true
}

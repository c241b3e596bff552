package live

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Snapshot is one published view of a collection. Data replaces the previous
// list wholesale; Loading is true only before the first list completes; Err
// is set once on subscription failure, after which no further snapshots are
// published (no automatic retry).
type Snapshot struct {
	Data    []Record
	Loading bool
	Err     error
}

// Subscription is one live view over a collection. It owns exactly one
// change feed, publishes snapshots on Updates, and guarantees that nothing
// is published after Close returns — even if a store event or error arrives
// while Close is in flight.
type Subscription struct {
	collection string
	log        *zap.Logger
	cancel     context.CancelFunc

	mu      sync.Mutex
	closed  bool
	current Snapshot
	updates chan Snapshot
}

const updateBuffer = 16

func newSubscription(collection string, log *zap.Logger, cancel context.CancelFunc) *Subscription {
	return &Subscription{
		collection: collection,
		log:        log,
		cancel:     cancel,
		current:    Snapshot{Data: []Record{}, Loading: true},
		updates:    make(chan Snapshot, updateBuffer),
	}
}

// Current returns the most recently published snapshot. Before the first
// snapshot arrives it is {Data: [], Loading: true, Err: nil}.
func (s *Subscription) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Updates delivers each published snapshot in order. The channel is closed
// when the subscription is closed or fails.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Close releases the feed exactly once. After Close returns, no snapshot is
// published and Updates is closed. Safe to call repeatedly and concurrently.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.updates)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	subscriptionsOpen.WithLabelValues(s.collection).Dec()
}

// publish replaces the current snapshot and pushes it to Updates, unless the
// subscription has been closed. When the receiver is slower than the store,
// the oldest buffered snapshot is dropped — the list is replaced wholesale
// on every publish, so only the newest matters.
func (s *Subscription) publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.current = snap

	for {
		select {
		case s.updates <- snap:
			snapshotsPublished.WithLabelValues(s.collection).Inc()
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// terminate publishes a failure snapshot (keeping the last known data) and
// closes Updates. The subscription does not retry.
func (s *Subscription) terminate(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snap := Snapshot{Data: s.current.Data, Loading: false, Err: err}
	s.current = snap
	s.closed = true

	select {
	case s.updates <- snap:
	default:
		// Receiver is full; drop the oldest so the failure is observable.
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- snap:
		default:
		}
	}
	close(s.updates)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	subscriptionsOpen.WithLabelValues(s.collection).Dec()
	s.log.Warn("live subscription failed",
		zap.String("collection", s.collection),
		zap.Error(err))
}

// run drives the subscription: open the feed, publish the initial snapshot,
// then re-list and republish on every store-emitted change. The feed is
// opened before the first list so changes between the two are not missed.
// seed, when non-nil, runs between the first list and its publication and
// may replace the snapshot (default-record seeding).
func (s *Subscription) run(ctx context.Context, src Source, list listFunc, seed seedFunc) {
	feed, err := src.Watch(ctx)
	if err != nil {
		s.terminate(err)
		return
	}
	defer feed.Close(context.Background())

	data, err := list(ctx)
	if err != nil {
		s.terminate(err)
		return
	}
	if seed != nil {
		if seeded, ok := seed(ctx, data); ok {
			data = seeded
		}
	}
	s.publish(Snapshot{Data: data, Loading: false})

	for feed.Next(ctx) {
		data, err := list(ctx)
		if err != nil {
			s.terminate(err)
			return
		}
		s.publish(Snapshot{Data: data, Loading: false})
	}
	if err := feed.Err(); err != nil && ctx.Err() == nil {
		s.terminate(err)
	}
}

type listFunc func(context.Context) ([]Record, error)

// seedFunc inspects the first listed snapshot and may replace it. The bool
// result reports whether a replacement happened.
type seedFunc func(ctx context.Context, first []Record) ([]Record, bool)

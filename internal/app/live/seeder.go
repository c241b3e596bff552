package live

import (
	"context"
	"sync"

	"github.com/kesherteam/kesher/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// seeder writes a fixed default record set into a configuration collection
// iff the very first snapshot a subscription observes is empty.
//
// The writes go out concurrently, one per default record, not wrapped in a
// transaction. Default records carry fixed identifiers, so two subscribers
// racing through an empty first snapshot issue same-key writes and the
// collection still converges to exactly the default set.
type seeder struct {
	coll     *Collection
	defaults []Record
	once     sync.Once
}

// seed implements seedFunc: when the first listing is empty it writes the
// defaults and returns them as the current data immediately, without waiting
// for the write-triggered feed events to arrive.
func (s *seeder) seed(ctx context.Context, first []Record) ([]Record, bool) {
	if len(first) > 0 {
		return nil, false
	}

	seeded := false
	s.once.Do(func() {
		// The subscription that triggered seeding may outlive a write that
		// never completes; bound the whole batch instead of inheriting the
		// caller's lifetime.
		wctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
		defer cancel()

		var wg sync.WaitGroup
		for _, rec := range s.defaults {
			wg.Add(1)
			go func(rec Record) {
				defer wg.Done()
				doc := ToDocument(rec, s.coll.schema)
				if id := rec.ID(); id != "" {
					doc["_id"] = id
				}
				if _, err := insertRaw(wctx, s.coll.src, doc); err != nil {
					s.coll.log.Warn("seed write failed",
						zap.String("collection", s.coll.Name()),
						zap.Error(err))
					return
				}
				seedWrites.WithLabelValues(s.coll.Name()).Inc()
			}(rec)
		}
		wg.Wait()
		seeded = true
	})
	if !seeded {
		return nil, false
	}

	out := make([]Record, len(s.defaults))
	for i, rec := range s.defaults {
		out[i] = rec.Clone()
	}
	return out, true
}

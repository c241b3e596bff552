package live

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Mutator issues add/update/delete writes against one collection. It holds
// no local copy of the data — the open subscription observes every effect
// asynchronously — and tracks only the status of its most recent call:
// concurrent calls from the same mutator share and overwrite that status.
//
// Close prevents a still-in-flight call from updating status afterwards; the
// write itself is not cancellable and still resolves.
type Mutator struct {
	src    Source
	schema Schema

	mu      sync.Mutex
	loading bool
	err     error
	closed  bool
}

// NewMutator creates a mutator for the collection.
func (c *Collection) NewMutator() *Mutator {
	return &Mutator{src: c.src, schema: c.schema}
}

// Add inserts a complete new record (identifier omitted; a supplied "id" is
// ignored) and returns the generated identifier. Callers must treat a
// missing identifier as failure.
func (m *Mutator) Add(ctx context.Context, rec Record) (string, error) {
	m.begin()
	doc := ToDocument(rec, m.schema)
	delete(doc, "_id")
	if _, ok := doc["created_at"]; !ok && m.schema["created_at"] == KindTime {
		doc["created_at"] = time.Now().UTC()
	}
	id, err := m.src.Insert(ctx, doc)
	m.finish(err)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update applies a partial-merge write restricted to the supplied fields.
// Fields absent from the record are left untouched. Returns ErrNotFound when
// the referenced record does not exist; nothing is rolled back on failure
// because nothing is held locally.
func (m *Mutator) Update(ctx context.Context, id string, fields Record) error {
	m.begin()
	doc := ToDocument(fields, m.schema)
	err := m.src.Merge(ctx, id, doc)
	m.finish(err)
	return err
}

// Delete hard-deletes one record. Deleting a non-existent identifier
// surfaces ErrNotFound rather than succeeding silently.
func (m *Mutator) Delete(ctx context.Context, id string) error {
	m.begin()
	err := m.src.Delete(ctx, id)
	m.finish(err)
	return err
}

// Status reports the in-flight flag and error of the most recent call only.
func (m *Mutator) Status() (loading bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading, m.err
}

// Close stops all future status updates. In-flight writes still resolve.
func (m *Mutator) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *Mutator) begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.loading = true
	m.err = nil
}

func (m *Mutator) finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.loading = false
	m.err = err
}

// insertRaw writes doc without schema mapping; used by the seeder, which
// supplies fixed identifiers.
func insertRaw(ctx context.Context, src Source, doc bson.M) (string, error) {
	return src.Insert(ctx, doc)
}

package live

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemorySource is an in-memory Source used by tests and by environments
// without a reachable store. It preserves insertion order and notifies every
// open feed on each mutation.
type MemorySource struct {
	mu       sync.Mutex
	name     string
	docs     map[string]bson.M
	order    []string
	feeds    map[*memoryFeed]struct{}
	listErr  error
	watchErr error
}

// NewMemorySource creates an empty in-memory collection.
func NewMemorySource(name string) *MemorySource {
	return &MemorySource{
		name:  name,
		docs:  make(map[string]bson.M),
		feeds: make(map[*memoryFeed]struct{}),
	}
}

func (s *MemorySource) Name() string { return s.name }

// FailLists makes subsequent List calls return err (nil restores normal
// behavior). Used to exercise subscription failure paths.
func (s *MemorySource) FailLists(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailWatch makes subsequent Watch calls return err.
func (s *MemorySource) FailWatch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchErr = err
}

// EmitError fails every open feed with err, as a dropped store connection
// would.
func (s *MemorySource) EmitError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for f := range s.feeds {
		f.fail(err)
	}
}

// Len returns the number of stored documents.
func (s *MemorySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *MemorySource) List(ctx context.Context) ([]bson.M, error) {
	return s.ListWhere(ctx, "", nil)
}

func (s *MemorySource) ListWhere(_ context.Context, field string, value any) ([]bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []bson.M
	for _, id := range s.order {
		doc := s.docs[id]
		if field != "" && !reflect.DeepEqual(doc[field], value) {
			continue
		}
		out = append(out, cloneDoc(doc))
	}
	return out, nil
}

func (s *MemorySource) Watch(_ context.Context) (Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	f := &memoryFeed{
		src:    s,
		events: make(chan struct{}, 64),
		done:   make(chan struct{}),
	}
	s.feeds[f] = struct{}{}
	return f, nil
}

func (s *MemorySource) Insert(_ context.Context, doc bson.M) (string, error) {
	s.mu.Lock()
	id := docID(doc)
	stored := cloneDoc(doc)
	stored["_id"] = rawIDValue(doc, id)
	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = stored
	s.mu.Unlock()

	s.notify()
	return id, nil
}

func (s *MemorySource) Merge(_ context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	doc, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *MemorySource) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.docs[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.docs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *MemorySource) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for f := range s.feeds {
		select {
		case f.events <- struct{}{}:
		default:
		}
	}
}

func (s *MemorySource) drop(f *memoryFeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feeds, f)
}

func docID(doc bson.M) string {
	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return primitive.NewObjectID().Hex()
	}
}

// rawIDValue keeps the stored _id in its original representation when one was
// supplied, so mapped records look the same as they would from Mongo.
func rawIDValue(doc bson.M, generated string) any {
	if id, ok := doc["_id"]; ok {
		return id
	}
	oid, err := primitive.ObjectIDFromHex(generated)
	if err != nil {
		return generated
	}
	return oid
}

func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

type memoryFeed struct {
	src    *MemorySource
	events chan struct{}
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (f *memoryFeed) Next(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-f.done:
		return false
	case <-f.events:
		return true
	}
}

func (f *memoryFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *memoryFeed) Close(_ context.Context) error {
	f.src.drop(f)
	f.closeDone()
	return nil
}

func (f *memoryFeed) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	f.closeDone()
}

func (f *memoryFeed) closeDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

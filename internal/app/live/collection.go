package live

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collection binds a Source to its record schema and hands out
// subscriptions, mutators, and seeded subscriptions.
type Collection struct {
	src    Source
	schema Schema
	log    *zap.Logger
}

// NewCollection wraps src with the given schema.
func NewCollection(src Source, schema Schema, log *zap.Logger) *Collection {
	return &Collection{src: src, schema: schema, log: log}
}

// NewMongoCollection wraps the named collection of db.
func NewMongoCollection(db *mongo.Database, name string, schema Schema, log *zap.Logger) *Collection {
	return NewCollection(NewMongoSource(db, name), schema, log)
}

// Name returns the underlying collection name.
func (c *Collection) Name() string { return c.src.Name() }

// Schema returns the collection's record schema.
func (c *Collection) Schema() Schema { return c.schema }

// List returns a one-shot mapped listing without opening a feed.
func (c *Collection) List(ctx context.Context) ([]Record, error) {
	return c.mapList(ctx, "", nil)
}

// ListWhere returns a one-shot mapped listing scoped by field equality.
func (c *Collection) ListWhere(ctx context.Context, field, value string) ([]Record, error) {
	return c.mapList(ctx, field, value)
}

// Subscribe opens exactly one live subscription over the whole collection.
// The caller owns the returned subscription and must Close it.
func (c *Collection) Subscribe(ctx context.Context) *Subscription {
	return c.subscribe(ctx, func(ctx context.Context) ([]Record, error) {
		return c.mapList(ctx, "", nil)
	}, nil)
}

// SubscribeWhere opens a live subscription scoped by an equality predicate
// on one field. An empty scoping value short-circuits: the subscription
// reports {Data: [], Loading: false, Err: nil} and no feed is opened.
// Changing the scoping value means closing this subscription and opening a
// fresh one; a brief overlap between the two is permitted.
func (c *Collection) SubscribeWhere(ctx context.Context, field, value string) *Subscription {
	if value == "" {
		sub := newSubscription(c.Name(), c.log, nil)
		sub.current = Snapshot{Data: []Record{}, Loading: false}
		sub.updates <- sub.current
		close(sub.updates)
		sub.closed = true
		return sub
	}
	return c.subscribe(ctx, func(ctx context.Context) ([]Record, error) {
		return c.mapList(ctx, field, value)
	}, nil)
}

// SubscribeSeeded opens a subscription that seeds defaults into an empty
// collection on first contact (see Seeder in seeder.go).
func (c *Collection) SubscribeSeeded(ctx context.Context, defaults []Record) *Subscription {
	seeder := &seeder{coll: c, defaults: defaults}
	return c.subscribe(ctx, func(ctx context.Context) ([]Record, error) {
		return c.mapList(ctx, "", nil)
	}, seeder.seed)
}

// EnsureSeeded returns the current listing, writing the defaults first when
// the collection is empty. One-shot counterpart to SubscribeSeeded for plain
// list endpoints.
func (c *Collection) EnsureSeeded(ctx context.Context, defaults []Record) ([]Record, error) {
	first, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	s := &seeder{coll: c, defaults: defaults}
	if seeded, ok := s.seed(ctx, first); ok {
		return seeded, nil
	}
	return first, nil
}

func (c *Collection) subscribe(ctx context.Context, list listFunc, seed seedFunc) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(c.Name(), c.log, cancel)
	subscriptionsOpen.WithLabelValues(c.Name()).Inc()
	go sub.run(runCtx, c.src, list, seed)
	return sub
}

func (c *Collection) mapList(ctx context.Context, field string, value any) ([]Record, error) {
	var (
		docs []bson.M
		err  error
	)
	if field == "" {
		docs, err = c.src.List(ctx)
	} else {
		docs, err = c.src.ListWhere(ctx, field, value)
	}
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, ToRecord(doc, c.schema))
	}
	return records, nil
}

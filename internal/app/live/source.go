package live

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned by Merge and Delete when the referenced record
// does not exist. Deleting a missing record surfaces this error rather than
// succeeding silently.
var ErrNotFound = errors.New("live: record not found")

// Source is the storage boundary the live layer runs against. Production
// uses the Mongo-backed source; tests use the in-memory one.
type Source interface {
	// Name returns the collection name, used for logging and metrics.
	Name() string

	// List returns every document in server delivery order.
	List(ctx context.Context) ([]bson.M, error)

	// ListWhere returns the documents whose field equals value.
	ListWhere(ctx context.Context, field string, value any) ([]bson.M, error)

	// Watch opens a change feed over the whole collection. The feed reports
	// that something changed; subscribers re-list to rebuild their snapshot.
	Watch(ctx context.Context) (Feed, error)

	// Insert writes one new document and returns its identifier. A supplied
	// "_id" is honored (fixed-identifier seeding); otherwise one is generated.
	Insert(ctx context.Context, doc bson.M) (string, error)

	// Merge applies a partial $set-style update restricted to the supplied
	// fields. Returns ErrNotFound when no document matches id.
	Merge(ctx context.Context, id string, fields bson.M) error

	// Delete hard-deletes one document. Returns ErrNotFound when no document
	// matches id.
	Delete(ctx context.Context, id string) error
}

// Feed is one open change feed. Next blocks until a change arrives, the feed
// fails, or ctx is canceled; it returns false in the latter two cases and
// Err reports the failure (nil on plain cancellation).
type Feed interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

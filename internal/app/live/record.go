// Package live is the data-synchronization layer between the Mongo-backed
// collections and the screens that mirror them. A Collection wraps one named
// collection and offers live subscriptions (full or filtered by one field),
// a mutator for add/update/delete, and default-record seeding for
// configuration collections.
//
// Snapshots flow one way: the store emits a change, the subscription re-lists
// the collection, maps every document through the record mapper, and
// publishes a new immutable snapshot that replaces the previous list
// wholesale. Mutations flow the other way as single remote writes; the open
// subscription is the sole source of truth for observing their effect.
package live

// Record is the UI-facing shape of one persisted document: identifiers are
// strings under "id", timestamps are RFC3339 strings, and every schema field
// is present with a typed default even when absent in storage.
type Record map[string]any

// FieldKind describes how a schema field converts between its stored form
// and its Record form.
type FieldKind int

const (
	KindText FieldKind = iota
	KindBool
	KindInt
	KindFloat
	KindTime
	KindStringList
	KindDayMap  // weekday name → time-slot list, normalized to all seven days
	KindDocList // list of flat sub-documents (history entries)
)

// Schema maps field names (storage names) to their kinds. The "_id" field is
// handled implicitly and must not appear in a schema.
type Schema map[string]FieldKind

// ID returns the record's identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

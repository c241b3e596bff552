package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testCollection(t *testing.T, name string, schema Schema) (*Collection, *MemorySource) {
	t.Helper()
	src := NewMemorySource(name)
	return NewCollection(src, schema, zap.NewNop()), src
}

// nextSnapshot receives one snapshot or fails the test after a timeout.
func nextSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		if !ok {
			t.Fatal("updates channel closed while a snapshot was expected")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
	}
	return Snapshot{}
}

func waitClosed(t *testing.T, sub *Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the updates channel to close")
		}
	}
}

func TestSubscriptionInitialSnapshot(t *testing.T) {
	coll, src := testCollection(t, "residents", ResidentSchema)
	if _, err := src.Insert(context.Background(), bson.M{"full_name": "Miriam Levi"}); err != nil {
		t.Fatal(err)
	}

	sub := coll.Subscribe(context.Background())
	defer sub.Close()

	if cur := sub.Current(); !cur.Loading {
		t.Error("Current before the first snapshot should report loading")
	}

	snap := nextSnapshot(t, sub)
	if snap.Loading || snap.Err != nil {
		t.Fatalf("initial snapshot = %+v, want settled without error", snap)
	}
	if len(snap.Data) != 1 || snap.Data[0]["full_name"] != "Miriam Levi" {
		t.Fatalf("initial data = %v", snap.Data)
	}
	if cur := sub.Current(); cur.Loading {
		t.Error("Current still loading after the first snapshot")
	}
}

func TestSubscriptionPublishesOnChange(t *testing.T) {
	coll, src := testCollection(t, "residents", ResidentSchema)
	sub := coll.Subscribe(context.Background())
	defer sub.Close()

	first := nextSnapshot(t, sub)
	if len(first.Data) != 0 {
		t.Fatalf("initial data = %v, want empty", first.Data)
	}

	id, err := src.Insert(context.Background(), bson.M{"full_name": "Yosef Adler"})
	if err != nil {
		t.Fatal(err)
	}

	snap := nextSnapshot(t, sub)
	if len(snap.Data) != 1 {
		t.Fatalf("snapshot after insert has %d records", len(snap.Data))
	}
	if snap.Data[0].ID() != id {
		t.Errorf("record id = %q, want %q", snap.Data[0].ID(), id)
	}

	if err := src.Delete(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	snap = nextSnapshot(t, sub)
	if len(snap.Data) != 0 {
		t.Fatalf("snapshot after delete = %v, want empty wholesale replacement", snap.Data)
	}
}

func TestSubscriptionFailureKeepsLastData(t *testing.T) {
	coll, src := testCollection(t, "residents", ResidentSchema)
	if _, err := src.Insert(context.Background(), bson.M{"full_name": "Sara Gold"}); err != nil {
		t.Fatal(err)
	}

	sub := coll.Subscribe(context.Background())
	defer sub.Close()
	nextSnapshot(t, sub)

	streamErr := errors.New("change stream dropped")
	src.EmitError(streamErr)

	snap := nextSnapshot(t, sub)
	if !errors.Is(snap.Err, streamErr) {
		t.Fatalf("failure snapshot err = %v, want %v", snap.Err, streamErr)
	}
	if snap.Loading {
		t.Error("failure snapshot still loading")
	}
	if len(snap.Data) != 1 {
		t.Errorf("failure snapshot data = %v, want last known list retained", snap.Data)
	}

	// No retry: the channel closes and stays closed even after new writes.
	waitClosed(t, sub)
	if _, err := src.Insert(context.Background(), bson.M{"full_name": "After Failure"}); err != nil {
		t.Fatal(err)
	}
	if cur := sub.Current(); len(cur.Data) != 1 || !errors.Is(cur.Err, streamErr) {
		t.Errorf("Current after failure = %+v, want the failure snapshot frozen", cur)
	}
}

func TestSubscriptionWatchErrorTerminates(t *testing.T) {
	coll, src := testCollection(t, "residents", ResidentSchema)
	watchErr := errors.New("store unreachable")
	src.FailWatch(watchErr)

	sub := coll.Subscribe(context.Background())
	defer sub.Close()

	snap := nextSnapshot(t, sub)
	if !errors.Is(snap.Err, watchErr) {
		t.Fatalf("snapshot err = %v, want %v", snap.Err, watchErr)
	}
	waitClosed(t, sub)
}

func TestSubscriptionCloseStopsPublishing(t *testing.T) {
	coll, src := testCollection(t, "residents", ResidentSchema)
	sub := coll.Subscribe(context.Background())
	nextSnapshot(t, sub)

	sub.Close()
	sub.Close() // idempotent

	if _, err := src.Insert(context.Background(), bson.M{"full_name": "Too Late"}); err != nil {
		t.Fatal(err)
	}
	// Give the run loop a chance to (incorrectly) publish.
	time.Sleep(50 * time.Millisecond)

	if cur := sub.Current(); len(cur.Data) != 0 {
		t.Fatalf("snapshot published after Close: %v", cur.Data)
	}
	waitClosed(t, sub)
}

// gatedListSource delays every listing until the gate opens.
type gatedListSource struct {
	*MemorySource
	gate chan struct{}
}

func (s *gatedListSource) List(ctx context.Context) ([]bson.M, error) {
	<-s.gate
	return s.MemorySource.List(ctx)
}

func TestSubscriptionCloseBeforeFirstSnapshot(t *testing.T) {
	src := NewMemorySource("residents")
	if _, err := src.Insert(context.Background(), bson.M{"full_name": "Never Delivered"}); err != nil {
		t.Fatal(err)
	}
	gated := &gatedListSource{MemorySource: src, gate: make(chan struct{})}
	coll := NewCollection(gated, ResidentSchema, zap.NewNop())

	sub := coll.Subscribe(context.Background())
	sub.Close()
	close(gated.gate)

	// Give the run loop a chance to finish the held-up listing and
	// (incorrectly) publish it.
	time.Sleep(50 * time.Millisecond)

	if cur := sub.Current(); !cur.Loading || len(cur.Data) != 0 || cur.Err != nil {
		t.Fatalf("Current after early Close = %+v, want the untouched loading state", cur)
	}
	for snap := range sub.Updates() {
		t.Errorf("snapshot delivered after early Close: %+v", snap)
	}
}

func TestSubscribeWhereFiltersByField(t *testing.T) {
	coll, src := testCollection(t, "attendance", AttendanceSchema)
	ctx := context.Background()
	if _, err := src.Insert(ctx, bson.M{"appointment_id": "a1", "status": "present"}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Insert(ctx, bson.M{"appointment_id": "a2", "status": "absent"}); err != nil {
		t.Fatal(err)
	}

	sub := coll.SubscribeWhere(ctx, "appointment_id", "a1")
	defer sub.Close()

	snap := nextSnapshot(t, sub)
	if len(snap.Data) != 1 || snap.Data[0]["appointment_id"] != "a1" {
		t.Fatalf("filtered snapshot = %v, want only a1", snap.Data)
	}

	// A change anywhere in the collection re-lists the scoped view.
	if _, err := src.Insert(ctx, bson.M{"appointment_id": "a1", "status": "late"}); err != nil {
		t.Fatal(err)
	}
	snap = nextSnapshot(t, sub)
	if len(snap.Data) != 2 {
		t.Fatalf("filtered snapshot after insert = %v, want two a1 records", snap.Data)
	}
}

func TestSubscribeWhereEmptyValueShortCircuits(t *testing.T) {
	coll, src := testCollection(t, "attendance", AttendanceSchema)
	if _, err := src.Insert(context.Background(), bson.M{"appointment_id": "a1"}); err != nil {
		t.Fatal(err)
	}

	sub := coll.SubscribeWhere(context.Background(), "appointment_id", "")
	defer sub.Close()

	snap := nextSnapshot(t, sub)
	if snap.Loading || snap.Err != nil || len(snap.Data) != 0 {
		t.Fatalf("short-circuit snapshot = %+v, want empty settled view", snap)
	}
	waitClosed(t, sub)

	// No feed was opened, so later writes change nothing.
	if _, err := src.Insert(context.Background(), bson.M{"appointment_id": "a1"}); err != nil {
		t.Fatal(err)
	}
	if cur := sub.Current(); len(cur.Data) != 0 {
		t.Errorf("short-circuited subscription observed a write: %v", cur.Data)
	}
}

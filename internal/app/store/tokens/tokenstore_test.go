package tokenstore_test

import (
	"testing"
	"time"

	tokenstore "github.com/kesherteam/kesher/internal/app/store/tokens"
	"github.com/kesherteam/kesher/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_IssueAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	tok, err := store.Issue(ctx, userID, time.Hour, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected an opaque token value")
	}
	if tok.Refreshed {
		t.Error("fresh token marked refreshed")
	}

	found, err := store.Get(ctx, tok.Token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found.UserID != userID {
		t.Errorf("UserID: got %v, want %v", found.UserID, userID)
	}
	if !found.ExpiresAt.After(time.Now()) {
		t.Error("expected a future expiry")
	}
}

func TestStore_Get_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, "no-such-token"); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Refresh_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tok, err := store.Issue(ctx, primitive.NewObjectID(), time.Minute, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	refreshed, err := store.Refresh(ctx, tok.Token, time.Hour)
	if err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}
	if !refreshed.Refreshed {
		t.Error("expected refreshed flag after first refresh")
	}
	if !refreshed.ExpiresAt.After(tok.ExpiresAt) {
		t.Error("expected refresh to extend expiry")
	}

	// The second refresh finds no un-refreshed token.
	if _, err := store.Refresh(ctx, tok.Token, time.Hour); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments on second refresh, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tok, err := store.Issue(ctx, primitive.NewObjectID(), time.Hour, true)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := store.Delete(ctx, tok.Token); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, tok.Token); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments after delete, got %v", err)
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, tok.Token); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Issue(ctx, userID, time.Hour, false); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}
	other, err := store.Issue(ctx, primitive.NewObjectID(), time.Hour, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	count, err := store.DeleteByUser(ctx, userID)
	if err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 deleted, got %d", count)
	}

	// Other users' tokens are untouched.
	if _, err := store.Get(ctx, other.Token); err != nil {
		t.Errorf("unrelated token was deleted: %v", err)
	}
}

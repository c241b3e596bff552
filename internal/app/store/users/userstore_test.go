package userstore_test

import (
	"testing"

	userstore "github.com/kesherteam/kesher/internal/app/store/users"
	"github.com/kesherteam/kesher/internal/app/system/indexes"
	"github.com/kesherteam/kesher/internal/domain/models"
	"github.com/kesherteam/kesher/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := models.User{
		Username:     "Dana_Manager",
		PasswordHash: "x",
		FullName:     "  Dana Levi ",
		Role:         " Manager ",
		IsActive:     true,
	}

	created, err := store.Create(ctx, user)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Username != "dana_manager" {
		t.Errorf("Username: got %q, want normalized lowercase", created.Username)
	}
	if created.UsernameCI == "" {
		t.Error("expected UsernameCI to be set")
	}
	if created.FullName != "Dana Levi" {
		t.Errorf("FullName: got %q, want trimmed", created.FullName)
	}
	if created.Role != "manager" {
		t.Errorf("Role: got %q, want normalized lowercase", created.Role)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Username: "x", Role: "admin"})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_Create_DuplicateUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := store.Create(ctx, models.User{Username: "shira", Role: "manager"})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	// Same username in different case collides on username_ci.
	_, err = store.Create(ctx, models.User{Username: "SHIRA", Role: "volunteer"})
	if err != userstore.ErrDuplicateUsername {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestStore_GetByUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Username: "Noam", Role: "volunteer"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Lookup with different case still finds the account.
	found, err := store.GetByUsername(ctx, "nOaM")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID: got %v, want %v", found.ID, created.ID)
	}
}

func TestStore_GetByUsername_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByUsername(ctx, "nobody")
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_UpdateAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Username: "tal", Role: "volunteer", IsActive: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mixed-case role normalizes before validation and storage.
	err = store.UpdateAccount(ctx, created.ID, userstore.Update{
		FullName: "Tal Berkovich",
		Role:     "Manager",
		IsActive: false,
	})
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.FullName != "Tal Berkovich" {
		t.Errorf("FullName: got %q", found.FullName)
	}
	if found.Role != "manager" {
		t.Errorf("Role: got %q", found.Role)
	}
	if found.IsActive {
		t.Error("expected account to be deactivated")
	}
	// Username untouched by account updates.
	if found.Username != "tal" {
		t.Errorf("Username changed: %q", found.Username)
	}
}

func TestStore_UpdateAccount_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.UpdateAccount(ctx, primitive.NewObjectID(), userstore.Update{Role: "manager"})
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Username: "gone", Role: "volunteer"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deleted, got %d", count)
	}

	if _, err := store.GetByID(ctx, created.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments after delete, got %v", err)
	}
}

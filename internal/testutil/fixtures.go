package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateManager creates a manager account with the given credentials. The
// password is stored as the legacy digest, matching what the provisioning
// tool writes.
func (f *Fixtures) CreateManager(ctx context.Context, username, password string) models.User {
	f.t.Helper()
	return f.createUser(ctx, username, password, models.RoleManager, true)
}

// CreateVolunteerAccount creates an active volunteer account.
func (f *Fixtures) CreateVolunteerAccount(ctx context.Context, username, password string) models.User {
	f.t.Helper()
	return f.createUser(ctx, username, password, models.RoleVolunteer, true)
}

// CreateDisabledUser creates a manager account that cannot sign in.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, username, password string) models.User {
	f.t.Helper()
	return f.createUser(ctx, username, password, models.RoleManager, false)
}

func (f *Fixtures) createUser(ctx context.Context, username, password, role string, active bool) models.User {
	f.t.Helper()

	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		PasswordHash: auth.LegacyHash(password),
		FullName:     "Test " + username,
		Role:         role,
		IsActive:     active,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateResident creates an active resident with the given name.
func (f *Fixtures) CreateResident(ctx context.Context, fullName string) models.Resident {
	f.t.Helper()

	res := models.Resident{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Languages:      []string{"hebrew"},
		Hobbies:        []string{},
		AvailableSlots: models.NewAvailability(),
		MatchedHistory: []models.MatchEntry{},
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("residents").InsertOne(ctx, res); err != nil {
		f.t.Fatalf("failed to create test resident: %v", err)
	}
	return res
}

// CreateVolunteer creates an active volunteer profile with the given name.
func (f *Fixtures) CreateVolunteer(ctx context.Context, fullName string) models.Volunteer {
	f.t.Helper()

	vol := models.Volunteer{
		ID:                 primitive.NewObjectID(),
		FullName:           fullName,
		FullNameCI:         text.Fold(fullName),
		Skills:             []string{},
		Hobbies:            []string{},
		Languages:          []string{"hebrew"},
		AvailableSlots:     models.NewAvailability(),
		AppointmentHistory: []models.AppointmentEntry{},
		IsActive:           true,
		CreatedAt:          time.Now().UTC(),
	}
	if _, err := f.db.Collection("volunteers").InsertOne(ctx, vol); err != nil {
		f.t.Fatalf("failed to create test volunteer: %v", err)
	}
	return vol
}

// CreateAttendance creates a confirmed attendance record.
func (f *Fixtures) CreateAttendance(ctx context.Context, appointmentID, volunteerID, status string) models.AttendanceRecord {
	f.t.Helper()

	rec := models.AttendanceRecord{
		ID:            primitive.NewObjectID(),
		AppointmentID: appointmentID,
		VolunteerID:   volunteerID,
		Status:        status,
		ConfirmedBy:   "test-manager",
		ConfirmedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("attendance").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test attendance record: %v", err)
	}
	return rec
}

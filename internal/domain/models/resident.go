package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchEntry records one past pairing of a resident with a volunteer.
// References are by identifier only; no foreign-key enforcement exists, so a
// deleted volunteer leaves its entries behind.
type MatchEntry struct {
	VolunteerID   string `bson:"volunteer_id" json:"volunteerId"`
	AppointmentID string `bson:"appointment_id" json:"appointmentId"`
	Date          string `bson:"date" json:"date"` // YYYY-MM-DD
	Feedback      string `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Resident is a care-home resident managed through the coordination screens.
type Resident struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"full_name" json:"fullName"`
	FullNameCI     string             `bson:"full_name_ci" json:"-"`
	Gender         string             `bson:"gender,omitempty" json:"gender,omitempty"`
	BirthDate      string             `bson:"birth_date,omitempty" json:"birthDate,omitempty"` // YYYY-MM-DD
	Room           string             `bson:"room,omitempty" json:"room,omitempty"`
	Languages      []string           `bson:"languages" json:"languages"`
	Hobbies        []string           `bson:"hobbies" json:"hobbies"`
	AvailableSlots Availability       `bson:"available_slots" json:"availableSlots"`
	MatchedHistory []MatchEntry       `bson:"matched_history" json:"matchedHistory"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

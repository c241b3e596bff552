package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentEntry records one appointment a volunteer took part in.
type AppointmentEntry struct {
	AppointmentID string `bson:"appointment_id" json:"appointmentId"`
	ResidentID    string `bson:"resident_id" json:"residentId"`
	Date          string `bson:"date" json:"date"` // YYYY-MM-DD
}

// Volunteer is a volunteer profile managed through the coordination screens.
type Volunteer struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName           string             `bson:"full_name" json:"fullName"`
	FullNameCI         string             `bson:"full_name_ci" json:"-"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email              string             `bson:"email,omitempty" json:"email,omitempty"`
	Skills             []string           `bson:"skills" json:"skills"`
	Hobbies            []string           `bson:"hobbies" json:"hobbies"`
	Languages          []string           `bson:"languages" json:"languages"`
	AvailableSlots     Availability       `bson:"available_slots" json:"availableSlots"`
	AppointmentHistory []AppointmentEntry `bson:"appointment_history" json:"appointmentHistory"`
	PresentCount       int                `bson:"present_count" json:"presentCount"`
	AbsentCount        int                `bson:"absent_count" json:"absentCount"`
	LateCount          int                `bson:"late_count" json:"lateCount"`
	TotalSessions      int                `bson:"total_sessions" json:"totalSessions"`
	TotalHours         float64            `bson:"total_hours" json:"totalHours"`
	IsActive           bool               `bson:"is_active" json:"isActive"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
)

// IsValidAttendanceStatus reports whether s is a supported attendance status.
func IsValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// AttendanceRecord confirms a volunteer's attendance at one appointment.
// Appointment and volunteer are referenced by identifier only; deleting a
// volunteer does not delete its attendance records.
type AttendanceRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppointmentID string             `bson:"appointment_id" json:"appointmentId"`
	VolunteerID   string             `bson:"volunteer_id" json:"volunteerId"`
	Status        string             `bson:"status" json:"status"`
	ConfirmedBy   string             `bson:"confirmed_by" json:"confirmedBy"`
	ConfirmedAt   time.Time          `bson:"confirmed_at" json:"confirmedAt"`
}

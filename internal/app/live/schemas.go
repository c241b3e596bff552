package live

// Schemas for the collections mirrored by the live layer. Field names are
// the storage names; the record mapper exposes the same names on the UI side
// with "id" standing in for "_id".

// ResidentSchema mirrors the residents collection.
var ResidentSchema = Schema{
	"full_name":       KindText,
	"gender":          KindText,
	"birth_date":      KindText,
	"room":            KindText,
	"languages":       KindStringList,
	"hobbies":         KindStringList,
	"available_slots": KindDayMap,
	"matched_history": KindDocList,
	"is_active":       KindBool,
	"notes":           KindText,
	"created_at":      KindTime,
}

// VolunteerSchema mirrors the volunteers collection. Attendance counters and
// history entries are flat sub-documents.
var VolunteerSchema = Schema{
	"full_name":           KindText,
	"phone":               KindText,
	"email":               KindText,
	"skills":              KindStringList,
	"hobbies":             KindStringList,
	"languages":           KindStringList,
	"available_slots":     KindDayMap,
	"appointment_history": KindDocList,
	"present_count":       KindInt,
	"absent_count":        KindInt,
	"late_count":          KindInt,
	"total_sessions":      KindInt,
	"total_hours":         KindFloat,
	"is_active":           KindBool,
	"created_at":          KindTime,
}

// AttendanceSchema mirrors the attendance collection.
var AttendanceSchema = Schema{
	"appointment_id": KindText,
	"volunteer_id":   KindText,
	"status":         KindText,
	"confirmed_by":   KindText,
	"confirmed_at":   KindTime,
}

// MatchingRuleSchema mirrors the matching_rules configuration collection.
// Rule identifiers are fixed strings, not ObjectIDs.
var MatchingRuleSchema = Schema{
	"label":      KindText,
	"weight":     KindFloat,
	"enabled":    KindBool,
	"updated_at": KindTime,
}

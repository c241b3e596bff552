package models

import "time"

// MatchingRule is a configuration record describing one weighted criterion
// used when pairing volunteers with residents. Only the records are managed
// here; no component executes the weights as a scoring function.
type MatchingRule struct {
	ID        string    `bson:"_id" json:"id"`
	Label     string    `bson:"label" json:"label"`
	Weight    float64   `bson:"weight" json:"weight"`
	Enabled   bool      `bson:"enabled" json:"enabled"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// DefaultMatchingRules is the fixed rule set seeded into an empty
// matching_rules collection. Identifiers are stable strings, so a concurrent
// double-seed degenerates to idempotent same-key writes.
var DefaultMatchingRules = []MatchingRule{
	{ID: "shared_language", Label: "Shared language", Weight: 3, Enabled: true},
	{ID: "availability_overlap", Label: "Availability overlap", Weight: 5, Enabled: true},
	{ID: "hobby_match", Label: "Shared hobbies", Weight: 2, Enabled: true},
	{ID: "gender_preference", Label: "Gender preference", Weight: 1, Enabled: false},
	{ID: "history_balance", Label: "History balance", Weight: 2, Enabled: true},
}

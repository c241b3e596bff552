package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleManager   = "manager"
	RoleVolunteer = "volunteer"
)

// IsValidRole reports whether role is one of the supported account roles.
func IsValidRole(role string) bool {
	return role == RoleManager || role == RoleVolunteer
}

// User is an account that can sign in.
//
// Username uniqueness is enforced by a unique index on username_ci (the
// case-folded form), so concurrent creates with the same username surface a
// duplicate-key error instead of silently racing.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	UsernameCI   string             `bson:"username_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	FullName     string             `bson:"full_name" json:"fullName"`
	Role         string             `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}

package model

import (
	"time"
)

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the roles the storage layer accepts.
// The database enforces the same set with a check constraint.
func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RolePatient, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword *string   `db:"hashed_password" json:"-"`
	EmailVerified  bool      `db:"email_verified" json:"emailVerified"`
	Role           Role      `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateUserParams struct {
	Email          string
	HashedPassword *string
	Role           Role
}

type UpdateUserParams struct {
	Email         *string
	EmailVerified *bool
	Role          *Role
}

package model

import (
	"time"
)

type RefreshToken struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	HashedToken string    `db:"hashed_token" json:"-"`
	ExpiresAt   time.Time `db:"expires_at" json:"expiresAt"`
	Revoked     bool      `db:"revoked" json:"revoked"`
	ReplacedBy  *string   `db:"replaced_by" json:"replacedBy,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Valid reports whether the token can still be exchanged at the given
// instant. Revocation wins over expiry; a replaced token is always
// revoked first, so following a rotation chain never yields a valid
// predecessor.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

type CreateRefreshTokenParams struct {
	UserID      string
	HashedToken string
	ExpiresAt   time.Time
}

package model

import (
	"time"
)

type OAuthAccount struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	Provider       string    `db:"provider" json:"provider"`
	ProviderUserID string    `db:"provider_user_id" json:"providerUserId"`
	AccessToken    *string   `db:"access_token" json:"-"`
	RefreshToken   *string   `db:"refresh_token" json:"-"`
	ExpiresAt      *int64    `db:"expires_at" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type CreateOAuthAccountParams struct {
	UserID         string
	Provider       string
	ProviderUserID string
	AccessToken    *string
	RefreshToken   *string
	ExpiresAt      *int64
}

const (
	OAuthProviderGoogle = "google"
)

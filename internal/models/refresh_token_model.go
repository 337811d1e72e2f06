package models

import "time"

// RefreshToken is an opaque session token, distinct from platform OAuth tokens.
// Valid iff not revoked and not expired; reusable until then.
type RefreshToken struct {
	ID        int64     `db:"id" json:"id"`
	Token     string    `db:"token" json:"-"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	IsRevoked bool      `db:"is_revoked" json:"is_revoked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

package models

import "time"

// OAuthState is a single-use CSRF token binding an OAuth redirect round-trip
// to the (user, platform) pair that initiated it.
type OAuthState struct {
	ID        int64     `db:"id" json:"id"`
	State     string    `db:"state" json:"state"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Platform  string    `db:"platform" json:"platform"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

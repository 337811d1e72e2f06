package models

import "time"

const (
	PlatformGoogle   = "google"
	PlatformFacebook = "facebook"
	PlatformTiktok   = "tiktok"
)

// SocialConnection links one user to one platform account. Tokens are stored
// encrypted; a disconnect flips IsActive instead of deleting the row.
type SocialConnection struct {
	ID                    int64     `db:"id" json:"id"`
	UserID                int64     `db:"user_id" json:"user_id"`
	Platform              string    `db:"platform" json:"platform"`
	PlatformUserID        string    `db:"platform_user_id" json:"platform_user_id"`
	PlatformUsername      string    `db:"platform_username" json:"platform_username"`
	PlatformAvatarURL     string    `db:"platform_avatar_url" json:"platform_avatar_url"`
	EncryptedAccessToken  string    `db:"encrypted_access_token" json:"-"`
	EncryptedRefreshToken string    `db:"encrypted_refresh_token" json:"-"`
	ExpiresAt             time.Time `db:"expires_at" json:"expires_at"`
	Scopes                []string  `db:"scopes" json:"scopes"`
	IsActive              bool      `db:"is_active" json:"is_active"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

package models

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // empty for social-login-only accounts
	Name         string    `db:"name" json:"name"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DeviceToken holds a push-notification token registered by a client device.
// Delivery itself goes through the Notifier collaborator.
type DeviceToken struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Token      string    `db:"token" json:"token"`
	DeviceType string    `db:"device_type" json:"device_type"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

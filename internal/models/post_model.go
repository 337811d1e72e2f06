package models

import (
	"database/sql"
	"time"
)

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

type Post struct {
	ID          int64        `db:"id" json:"id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	Content     string       `db:"content" json:"content"`
	MediaURLs   []string     `db:"media_urls" json:"media_urls"`
	Status      string       `db:"status" json:"status"`
	ScheduledAt sql.NullTime `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt sql.NullTime `db:"published_at" json:"published_at"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// PostTarget is one (post, connection) delivery attempt with its own status.
type PostTarget struct {
	ID             int64        `db:"id" json:"id"`
	PostID         int64        `db:"post_id" json:"post_id"`
	ConnectionID   int64        `db:"connection_id" json:"connection_id"`
	PlatformPostID string       `db:"platform_post_id" json:"platform_post_id"`
	Status         string       `db:"status" json:"status"`
	ErrorMessage   string       `db:"error_message" json:"error_message"`
	PublishedAt    sql.NullTime `db:"published_at" json:"published_at"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

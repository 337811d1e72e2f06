package transfer

import "time"

type PostCreation struct {
	Content             string     `json:"content" validate:"required"`
	MediaURLs           []string   `json:"media_urls" validate:"omitempty,dive,url"`
	ScheduledAt         *time.Time `json:"scheduled_at"`
	TargetConnectionIDs []int64    `json:"target_connection_ids" validate:"required,min=1"`
}

type PostUpdate struct {
	Content     *string    `json:"content"`
	MediaURLs   []string   `json:"media_urls"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type TargetResponse struct {
	ID             int64      `json:"id"`
	ConnectionID   int64      `json:"connection_id"`
	PlatformPostID string     `json:"platform_post_id,omitempty"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

type PostResponse struct {
	ID          int64            `json:"id"`
	Content     string           `json:"content"`
	MediaURLs   []string         `json:"media_urls,omitempty"`
	Status      string           `json:"status"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	Targets     []TargetResponse `json:"targets,omitempty"`
}

type UploadURLRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

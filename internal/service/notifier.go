package service

import (
	"context"
	"log/slog"

	"github.com/feedmerge/server/internal/repository"
)

// Notifier tells a user's registered devices about publish results.
type Notifier interface {
	NotifyPublishResult(ctx context.Context, userID, postID int64, status string)
}

type deviceNotifier struct {
	dt repository.DeviceTokenRepository
}

func NewDeviceNotifier(dt repository.DeviceTokenRepository) Notifier {
	return &deviceNotifier{dt: dt}
}

// NotifyPublishResult is best effort, a notification failure never affects
// the publish outcome.
func (n *deviceNotifier) NotifyPublishResult(ctx context.Context, userID, postID int64, status string) {
	tokens, err := n.dt.ListActiveByUserID(ctx, userID)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, token := range tokens {
		slog.Info("publish notification",
			"user_id", userID,
			"post_id", postID,
			"status", status,
			"device_type", token.DeviceType,
		)
	}
}

package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/platform"
	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.PublishPost(ctx, payload.PostID)
}

// PublishPost fans a post out to all of its targets. Targets are independent,
// one target's failure never aborts the others, and every per target status
// write is committed before the next target is attempted. The post ends up
// published when at least one target made it out, failed when none did.
func (q *Queue) PublishPost(ctx context.Context, postID int64) error {
	post, err := q.p.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("post gone before publish", "post_id", postID)
		return nil
	}

	targets, err := q.pt.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}

	anyPublished := false
	for _, target := range targets {
		if target.Status == models.PostStatusPublished {
			anyPublished = true
			continue
		}

		if q.publishTarget(ctx, post, target) {
			anyPublished = true
		}
	}

	status := models.PostStatusFailed
	if anyPublished {
		status = models.PostStatusPublished
	}
	if err := q.p.UpdateStatus(ctx, postID, status); err != nil {
		return err
	}
	if anyPublished {
		if err := q.p.SetPublishedAt(ctx, postID, time.Now()); err != nil {
			return err
		}
	}

	q.notifier.NotifyPublishResult(ctx, post.UserID, postID, status)
	return nil
}

func (q *Queue) publishTarget(ctx context.Context, post *models.Post, target *models.PostTarget) bool {
	conn, err := q.sc.GetByID(ctx, target.ConnectionID)
	if err != nil {
		q.failTarget(ctx, target.ID, err.Error())
		return false
	}
	if conn == nil || !conn.IsActive {
		q.failTarget(ctx, target.ID, "connection inactive")
		return false
	}

	accessToken := q.cipher.Decrypt(conn.EncryptedAccessToken)
	if accessToken == "" {
		q.failTarget(ctx, target.ID, "decrypt failure")
		return false
	}

	adapter, err := q.registry.Get(conn.Platform)
	if err != nil {
		q.failTarget(ctx, target.ID, err.Error())
		return false
	}

	creds := platform.Credentials{
		AccessToken:    accessToken,
		RefreshToken:   q.cipher.Decrypt(conn.EncryptedRefreshToken),
		PlatformUserID: conn.PlatformUserID,
	}

	platformPostID, err := adapter.Publish(ctx, creds, post.Content, post.MediaURLs)
	if err != nil {
		slog.Info("target publish failed", "target_id", target.ID, "platform", conn.Platform, "error", err.Error())
		q.failTarget(ctx, target.ID, err.Error())
		return false
	}

	if err := q.pt.MarkPublished(ctx, target.ID, platformPostID, time.Now()); err != nil {
		slog.Info(err.Error())
		return false
	}
	return true
}

func (q *Queue) failTarget(ctx context.Context, targetID int64, message string) {
	if err := q.pt.MarkFailed(ctx, targetID, message); err != nil {
		slog.Info(err.Error())
	}
}

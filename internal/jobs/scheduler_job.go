package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/queue"
	"github.com/feedmerge/server/internal/repository"
	"github.com/hibiken/asynq"
)

// SchedulerJob is the periodic scan that moves due posts into the publish
// queue.
type SchedulerJob struct {
	p      repository.PostRepository
	client *asynq.Client
}

func NewSchedulerJob(p repository.PostRepository, client *asynq.Client) *SchedulerJob {
	return &SchedulerJob{
		p:      p,
		client: client,
	}
}

// ScanDuePosts claims every due scheduled post and dispatches one publish job
// per post. The claim flips the status in the same statement that selects the
// rows, so overlapping scans never dispatch the same post twice.
func (c *SchedulerJob) ScanDuePosts() {
	ctx := context.Background()

	ids, err := c.p.ClaimDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, id := range ids {
		err := queue.EnqueuePost(c.client, queue.PublishPostPayload{PostID: id})
		if err != nil {
			slog.Info("failed to enqueue publish task", "post_id", id, "error", err.Error())
		}
	}
}

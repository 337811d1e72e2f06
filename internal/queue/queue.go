package queue

import (
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func EnqueuePost(asynqClient *asynq.Client, payload PublishPostPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	slog.Info("publish task enqueued", "post_id", payload.PostID)
	return nil
}

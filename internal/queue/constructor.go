package queue

import (
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/service"
)

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

// TokenDecrypter recovers plaintext tokens for publish calls. Satisfied by
// utils.TokenCipher.
type TokenDecrypter interface {
	Decrypt(encrypted string) string
}

// Queue holds the dependencies of the publish worker.
type Queue struct {
	p        repository.PostRepository
	pt       repository.TargetRepository
	sc       repository.ConnectionRepository
	registry service.AdapterRegistry
	cipher   TokenDecrypter
	notifier service.Notifier
}

func NewQueue(
	p repository.PostRepository,
	pt repository.TargetRepository,
	sc repository.ConnectionRepository,
	registry service.AdapterRegistry,
	cipher TokenDecrypter,
	notifier service.Notifier) *Queue {
	return &Queue{
		p:        p,
		pt:       pt,
		sc:       sc,
		registry: registry,
		cipher:   cipher,
		notifier: notifier,
	}
}

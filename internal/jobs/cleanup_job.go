package job

import (
	"context"
	"log/slog"

	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/service"
)

// CleanupJob sweeps expired oauth states and session refresh tokens.
type CleanupJob struct {
	states OAuthStateCleaner
	rt     repository.RefreshTokenRepository
}

type OAuthStateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

func NewCleanupJob(states service.OAuthStateService, rt repository.RefreshTokenRepository) *CleanupJob {
	return &CleanupJob{
		states: states,
		rt:     rt,
	}
}

func (c *CleanupJob) Cleanup() {
	ctx := context.Background()

	if n, err := c.states.CleanupExpired(ctx); err != nil {
		slog.Info(err.Error())
	} else if n > 0 {
		slog.Info("expired oauth states removed", "count", n)
	}

	if n, err := c.rt.DeleteExpired(ctx); err != nil {
		slog.Info(err.Error())
	} else if n > 0 {
		slog.Info("expired refresh tokens removed", "count", n)
	}
}

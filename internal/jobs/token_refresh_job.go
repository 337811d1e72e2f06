package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/service"
)

type TokenRefreshJob struct {
	sc repository.ConnectionRepository
	cs service.ConnectionService
}

func NewTokenRefreshJob(sc repository.ConnectionRepository, cs service.ConnectionService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sc: sc,
		cs: cs,
	}
}

// RefreshTokens refreshes connections whose access token expires within the
// next half hour. A failed refresh leaves the connection as it was, it is
// never deactivated just because one refresh attempt failed.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	cutoff := time.Now().Add(30 * time.Minute)

	connections, err := c.sc.ListExpiring(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, conn := range connections {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(conn *models.SocialConnection) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.cs.RefreshConnectionTokens(ctx, conn); err != nil {
				slog.Info("unable to refresh tokens", "platform", conn.Platform, "connection_id", conn.ID)
			}
		}(conn)
	}

	wg.Wait()
}

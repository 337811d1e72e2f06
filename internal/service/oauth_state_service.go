package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/pkg/utils"
)

const stateTTL = 10 * time.Minute

// OAuthStateService issues and validates the single-use CSRF tokens that bind
// an authorization round trip to the user who started it.
type OAuthStateService interface {
	Issue(ctx context.Context, userID int64, platform string) (string, error)
	Validate(ctx context.Context, state string, userID int64, platform string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type oauthStateService struct {
	os repository.OAuthStateRepository
}

func NewOAuthStateService(os repository.OAuthStateRepository) OAuthStateService {
	return &oauthStateService{os: os}
}

func (s *oauthStateService) Issue(ctx context.Context, userID int64, platform string) (string, error) {
	state, err := utils.GenerateRandomToken(32)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	err = s.os.Create(ctx, &models.OAuthState{
		State:     state,
		UserID:    userID,
		Platform:  platform,
		ExpiresAt: time.Now().Add(stateTTL),
	})
	if err != nil {
		return "", err
	}

	return state, nil
}

func (s *oauthStateService) Validate(ctx context.Context, state string, userID int64, platform string) (bool, error) {
	return s.os.Consume(ctx, state, userID, platform)
}

func (s *oauthStateService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.os.DeleteExpired(ctx)
}

package service

import (
	"context"
	"testing"
	"time"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/platform"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/feedmerge/server/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSocialLoginService(t *testing.T, users *fakeUserRepo, connections *fakeConnectionRepo, states *fakeStateService, adapters ...platform.Adapter) SocialLoginService {
	t.Helper()
	return NewSocialLoginService(config.Config{SecretKey: "test-secret"}, users, connections,
		newFakeRefreshTokenRepo(), states, platform.NewRegistryWith(adapters...), testCipher(t))
}

func socialExchangeRequest(t *testing.T, states *fakeStateService, platformName string) *transfer.OAuthExchangeRequest {
	t.Helper()
	state, err := states.Issue(context.Background(), socialLoginStateOwner, platformName)
	require.NoError(t, err)
	return &transfer.OAuthExchangeRequest{
		Platform:          platformName,
		AuthorizationCode: "auth-code",
		State:             state,
	}
}

func TestSocialLoginCreatesUserWithPlaceholderEmail(t *testing.T) {
	adapter := &fakeAdapter{
		name:   models.PlatformTiktok,
		tokens: &platform.TokenSet{AccessToken: "plain-access", ExpiresAt: time.Now().Add(time.Hour)},
		profile: &platform.Profile{
			PlatformUserID: "open-123",
			Username:       "creator",
			Name:           "Creator Name",
		},
	}
	users := newFakeUserRepo()
	connections := newFakeConnectionRepo()
	states := newFakeStateService()
	svc := testSocialLoginService(t, users, connections, states, adapter)

	response, err := svc.Exchange(context.Background(), socialExchangeRequest(t, states, models.PlatformTiktok))
	require.NoError(t, err)

	// No email from the platform, so a deterministic placeholder is used.
	assert.Equal(t, "tiktok_open-123@social.invalid", response.User.Email)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)

	claims, err := utils.ValidateToken("test-secret", response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)

	stored, _, _ := users.GetByID(context.Background(), response.User.ID)
	assert.Empty(t, stored.PasswordHash)

	conns, _ := connections.ListActiveByUserID(context.Background(), response.User.ID)
	require.Len(t, conns, 1)
	assert.Equal(t, "open-123", conns[0].PlatformUserID)
	assert.NotEqual(t, "plain-access", conns[0].EncryptedAccessToken)
}

func TestSocialLoginExistingConnectionLogsIn(t *testing.T) {
	users := newFakeUserRepo()
	userID, err := users.Create(context.Background(), nil, &models.User{Email: "alex@example.com"})
	require.NoError(t, err)

	connections := newFakeConnectionRepo(&models.SocialConnection{
		ID:             3,
		UserID:         userID,
		Platform:       models.PlatformGoogle,
		PlatformUserID: "ext-1",
		IsActive:       true,
	})
	adapter := &fakeAdapter{
		name:    models.PlatformGoogle,
		tokens:  &platform.TokenSet{AccessToken: "new-access", ExpiresAt: time.Now().Add(time.Hour)},
		profile: &platform.Profile{PlatformUserID: "ext-1", Email: "alex@example.com"},
	}
	states := newFakeStateService()
	svc := testSocialLoginService(t, users, connections, states, adapter)

	response, err := svc.Exchange(context.Background(), socialExchangeRequest(t, states, models.PlatformGoogle))
	require.NoError(t, err)

	// Logged into the existing account, no duplicate user or connection.
	assert.Equal(t, userID, response.User.ID)
	assert.Len(t, users.users, 1)
	conns, _ := connections.ListActiveByUserID(context.Background(), userID)
	assert.Len(t, conns, 1)
}

func TestSocialLoginAttachesToExistingEmail(t *testing.T) {
	users := newFakeUserRepo()
	userID, err := users.Create(context.Background(), nil, &models.User{Email: "alex@example.com"})
	require.NoError(t, err)

	connections := newFakeConnectionRepo()
	adapter := &fakeAdapter{
		name:    models.PlatformGoogle,
		tokens:  &platform.TokenSet{AccessToken: "access", ExpiresAt: time.Now().Add(time.Hour)},
		profile: &platform.Profile{PlatformUserID: "ext-1", Email: "Alex@Example.com"},
	}
	states := newFakeStateService()
	svc := testSocialLoginService(t, users, connections, states, adapter)

	response, err := svc.Exchange(context.Background(), socialExchangeRequest(t, states, models.PlatformGoogle))
	require.NoError(t, err)

	assert.Equal(t, userID, response.User.ID)
	assert.Len(t, users.users, 1)
	conns, _ := connections.ListActiveByUserID(context.Background(), userID)
	require.Len(t, conns, 1)
	assert.Equal(t, "ext-1", conns[0].PlatformUserID)
}

func TestSocialLoginStateIsRequired(t *testing.T) {
	adapter := &fakeAdapter{
		name:    models.PlatformGoogle,
		tokens:  &platform.TokenSet{AccessToken: "access"},
		profile: &platform.Profile{PlatformUserID: "ext-1"},
	}
	svc := testSocialLoginService(t, newFakeUserRepo(), newFakeConnectionRepo(), newFakeStateService(), adapter)

	_, err := svc.Exchange(context.Background(), &transfer.OAuthExchangeRequest{
		Platform:          models.PlatformGoogle,
		AuthorizationCode: "auth-code",
		State:             "never-issued",
	})
	assertKind(t, err, apperror.Permission)
}

func TestSocialLoginUnsupportedPlatform(t *testing.T) {
	states := newFakeStateService()
	svc := testSocialLoginService(t, newFakeUserRepo(), newFakeConnectionRepo(), states)

	_, err := svc.Start(context.Background(), "myspace")
	assertKind(t, err, apperror.Validation)
}

func TestSocialLoginStartIssuesState(t *testing.T) {
	adapter := &fakeAdapter{name: models.PlatformGoogle}
	states := newFakeStateService()
	svc := testSocialLoginService(t, newFakeUserRepo(), newFakeConnectionRepo(), states, adapter)

	response, err := svc.Start(context.Background(), models.PlatformGoogle)
	require.NoError(t, err)
	assert.Contains(t, response.AuthorizationURL, "state=state-token")
}

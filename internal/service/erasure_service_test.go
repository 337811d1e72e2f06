package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signRequest(t *testing.T, secret string, payload map[string]any) string {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encodedPayload))
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signature + "." + encodedPayload
}

func testErasureService(t *testing.T, users *fakeUserRepo, connections *fakeConnectionRepo) ErasureService {
	t.Helper()
	cfg := config.Config{
		Facebook:       config.OAuthClient{ClientSecret: "app-secret"},
		StatusCheckURL: "https://api.example.com/webhooks/facebook/data-deletion/status",
	}
	return NewErasureService(cfg, txDB(t), users, connections, newFakePostRepo(),
		newFakeRefreshTokenRepo(), newFakeDeviceTokenRepo())
}

func TestHandleFacebookDeletionErasesAccount(t *testing.T) {
	users := newFakeUserRepo()
	userID, err := users.Create(context.Background(), nil, &models.User{Email: "alex@example.com"})
	require.NoError(t, err)

	conn := &models.SocialConnection{
		ID:             3,
		UserID:         userID,
		Platform:       models.PlatformFacebook,
		PlatformUserID: "fb-123",
		IsActive:       true,
	}
	connections := newFakeConnectionRepo(conn)
	svc := testErasureService(t, users, connections)

	signedRequest := signRequest(t, "app-secret", map[string]any{
		"user_id":   "fb-123",
		"algorithm": "HMAC-SHA256",
		"issued_at": time.Now().Unix(),
	})

	response, err := svc.HandleFacebookDeletion(context.Background(), signedRequest)
	require.NoError(t, err)

	_, exists, _ := users.GetByID(context.Background(), userID)
	assert.False(t, exists)
	remaining, _ := connections.ListActiveByUserID(context.Background(), userID)
	assert.Empty(t, remaining)
	assert.NotEmpty(t, response.ConfirmationCode)
	assert.Contains(t, response.URL, "code="+response.ConfirmationCode)
}

func TestHandleFacebookDeletionUnknownUserStillConfirms(t *testing.T) {
	svc := testErasureService(t, newFakeUserRepo(), newFakeConnectionRepo())

	signedRequest := signRequest(t, "app-secret", map[string]any{
		"user_id": "fb-unknown",
	})

	response, err := svc.HandleFacebookDeletion(context.Background(), signedRequest)
	require.NoError(t, err)
	assert.NotEmpty(t, response.ConfirmationCode)
}

func TestHandleFacebookDeletionRejectsBadSignature(t *testing.T) {
	users := newFakeUserRepo()
	userID, err := users.Create(context.Background(), nil, &models.User{Email: "alex@example.com"})
	require.NoError(t, err)

	connections := newFakeConnectionRepo(&models.SocialConnection{
		ID:             3,
		UserID:         userID,
		Platform:       models.PlatformFacebook,
		PlatformUserID: "fb-123",
		IsActive:       true,
	})
	svc := testErasureService(t, users, connections)

	signedRequest := signRequest(t, "wrong-secret", map[string]any{
		"user_id": "fb-123",
	})

	_, err = svc.HandleFacebookDeletion(context.Background(), signedRequest)
	assertKind(t, err, apperror.Auth)

	_, exists, _ := users.GetByID(context.Background(), userID)
	assert.True(t, exists)
}

func TestHandleFacebookDeletionRejectsMalformedRequest(t *testing.T) {
	svc := testErasureService(t, newFakeUserRepo(), newFakeConnectionRepo())

	for _, bad := range []string{"", "no-dot-here", "!!!.###", "c2ln.bm90anNvbg"} {
		_, err := svc.HandleFacebookDeletion(context.Background(), bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestEraseUserRemovesEverything(t *testing.T) {
	users := newFakeUserRepo()
	userID, err := users.Create(context.Background(), nil, &models.User{Email: "alex@example.com"})
	require.NoError(t, err)

	connections := newFakeConnectionRepo(&models.SocialConnection{ID: 1, UserID: userID, IsActive: true})
	posts := newFakePostRepo()
	_, err = posts.Create(context.Background(), nil, &models.Post{UserID: userID, Status: models.PostStatusDraft})
	require.NoError(t, err)

	svc := NewErasureService(config.Config{}, txDB(t), users, connections, posts,
		newFakeRefreshTokenRepo(), newFakeDeviceTokenRepo())

	require.NoError(t, svc.EraseUser(context.Background(), userID))

	_, exists, _ := users.GetByID(context.Background(), userID)
	assert.False(t, exists)
	remaining, _ := connections.ListActiveByUserID(context.Background(), userID)
	assert.Empty(t, remaining)
	posts2, _ := posts.ListByUserID(context.Background(), userID)
	assert.Empty(t, posts2)
}

func TestEraseUserMissingUser(t *testing.T) {
	svc := testErasureService(t, newFakeUserRepo(), newFakeConnectionRepo())

	err := svc.EraseUser(context.Background(), 404)
	assertKind(t, err, apperror.NotFound)
}

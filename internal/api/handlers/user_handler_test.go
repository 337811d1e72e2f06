package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/api/middleware"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/feedmerge/server/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	user *models.User
}

func (r *stubUserRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, true, nil
	}
	return nil, false, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return nil, false, nil
}

func (r *stubUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	return 0, nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (r *stubUserRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error { return nil }

func TestAuthMeReturnsCurrentUser(t *testing.T) {
	repo := &stubUserRepo{user: &models.User{
		ID:       7,
		Email:    "ann@x.com",
		Name:     "Ann",
		IsActive: true,
	}}

	app := fiber.New()
	authMiddleware := middleware.NewAuthMiddleware(config.Config{SecretKey: "test-secret"})
	handler := NewUserHandler(repo, nil)
	app.Get("/auth/me", authMiddleware.AuthMiddleware(), handler.GetUserInfo)

	token, err := utils.GenerateToken("test-secret", "7", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body transfer.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ann@x.com", body.Email)
	assert.Equal(t, "Ann", body.Name)
}

func TestAuthMeRequiresToken(t *testing.T) {
	app := fiber.New()
	authMiddleware := middleware.NewAuthMiddleware(config.Config{SecretKey: "test-secret"})
	handler := NewUserHandler(&stubUserRepo{}, nil)
	app.Get("/auth/me", authMiddleware.AuthMiddleware(), handler.GetUserInfo)

	req := httptest.NewRequest(fiber.MethodGet, "/auth/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/feedmerge/server/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	user, ok := r.users[id]
	return user, ok, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	user.ID = r.nextID
	r.nextID++
	user.IsActive = true
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(r.users, id)
	return nil
}

type fakeRefreshTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetValid(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := r.tokens[token]
	if !ok || rt.IsRevoked || rt.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return rt, nil
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, token string) (bool, error) {
	rt, ok := r.tokens[token]
	if !ok || rt.IsRevoked {
		return false, nil
	}
	rt.IsRevoked = true
	return true, nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	for key, rt := range r.tokens {
		if rt.ExpiresAt.Before(time.Now()) {
			delete(r.tokens, key)
			n++
		}
	}
	return n, nil
}

func (r *fakeRefreshTokenRepo) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	for key, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, key)
		}
	}
	return nil
}

type fakeDeviceTokenRepo struct {
	tokens map[string]*models.DeviceToken
}

func newFakeDeviceTokenRepo() *fakeDeviceTokenRepo {
	return &fakeDeviceTokenRepo{tokens: make(map[string]*models.DeviceToken)}
}

func (r *fakeDeviceTokenRepo) Upsert(ctx context.Context, token *models.DeviceToken) error {
	token.IsActive = true
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeDeviceTokenRepo) ListActiveByUserID(ctx context.Context, userID int64) ([]*models.DeviceToken, error) {
	var out []*models.DeviceToken
	for _, token := range r.tokens {
		if token.UserID == userID && token.IsActive {
			out = append(out, token)
		}
	}
	return out, nil
}

func (r *fakeDeviceTokenRepo) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	for key, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, key)
		}
	}
	return nil
}

func testAuthService() (AuthService, *fakeUserRepo, *fakeRefreshTokenRepo) {
	users := newFakeUserRepo()
	refreshTokens := newFakeRefreshTokenRepo()
	svc := NewAuthService(config.Config{SecretKey: "test-secret"}, users, refreshTokens, newFakeDeviceTokenRepo())
	return svc, users, refreshTokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, _ := testAuthService()

	registered, err := svc.Register(context.Background(), &transfer.RegisterRequest{
		Name:     "Alex",
		Email:    "Alex@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "alex@example.com", registered.User.Email)

	// Password is hashed at rest.
	stored, _, _ := users.GetByEmail(context.Background(), "alex@example.com")
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)

	login, err := svc.Login(context.Background(), &transfer.LoginRequest{
		Email:    "alex@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)

	claims, err := utils.ValidateToken("test-secret", login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := testAuthService()

	req := &transfer.RegisterRequest{Name: "Alex", Email: "alex@example.com", Password: "s3cret-pass"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assertKind(t, err, apperror.Conflict)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := testAuthService()

	_, err := svc.Register(context.Background(), &transfer.RegisterRequest{
		Name: "Alex", Email: "alex@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &transfer.LoginRequest{
		Email:    "alex@example.com",
		Password: "wrong-pass",
	})
	assertKind(t, err, apperror.Auth)

	_, err = svc.Login(context.Background(), &transfer.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	})
	assertKind(t, err, apperror.Auth)
}

func TestLoginRejectsSocialOnlyAccount(t *testing.T) {
	svc, users, _ := testAuthService()

	// Account created through social login carries no password hash.
	_, err := users.Create(context.Background(), nil, &models.User{
		Email: "social@example.com",
		Name:  "Social Only",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &transfer.LoginRequest{
		Email:    "social@example.com",
		Password: "anything-at-all",
	})
	assertKind(t, err, apperror.Auth)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _, _ := testAuthService()

	registered, err := svc.Register(context.Background(), &transfer.RegisterRequest{
		Name: "Alex", Email: "alex@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, svc.Logout(context.Background(), registered.RefreshToken))

	_, err = svc.Refresh(context.Background(), registered.RefreshToken)
	assertKind(t, err, apperror.Auth)
}

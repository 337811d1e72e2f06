package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/feedmerge/server/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

type AuthService interface {
	Register(ctx context.Context, req *transfer.RegisterRequest) (*transfer.RegisterResponse, error)
	Login(ctx context.Context, req *transfer.LoginRequest) (*transfer.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*transfer.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	SaveDeviceToken(ctx context.Context, userID int64, req *transfer.DeviceTokenRequest) error
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
	rt  repository.RefreshTokenRepository
	dt  repository.DeviceTokenRepository
}

func NewAuthService(
	cfg config.Config,
	u repository.UserRepository,
	rt repository.RefreshTokenRepository,
	dt repository.DeviceTokenRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
		rt:  rt,
		dt:  dt,
	}
}

func (s *authService) Register(ctx context.Context, req *transfer.RegisterRequest) (*transfer.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.New(apperror.Conflict, "email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         req.Name,
	}

	id, err := s.u.Create(ctx, nil, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	accessToken, refreshToken, err := s.issueTokens(ctx, id)
	if err != nil {
		return nil, err
	}

	return &transfer.RegisterResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *transfer.LoginRequest) (*transfer.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !exists || !user.IsActive {
		return nil, apperror.New(apperror.Auth, "invalid email or password")
	}

	// Social-login-only accounts have no password to check.
	if user.PasswordHash == "" {
		return nil, apperror.New(apperror.Auth, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.Auth, "invalid email or password")
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &transfer.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*transfer.RefreshResponse, error) {
	rt, err := s.rt.GetValid(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, apperror.New(apperror.Auth, "invalid or expired refresh token")
	}

	accessToken, err := utils.GenerateToken(s.cfg.SecretKey, strconv.FormatInt(rt.UserID, 10), accessTokenTTL)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.RefreshResponse{AccessToken: accessToken}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	revoked, err := s.rt.Revoke(ctx, refreshToken)
	if err != nil {
		return err
	}
	if !revoked {
		return apperror.New(apperror.Auth, "invalid refresh token")
	}
	return nil
}

func (s *authService) SaveDeviceToken(ctx context.Context, userID int64, req *transfer.DeviceTokenRequest) error {
	return s.dt.Upsert(ctx, &models.DeviceToken{
		UserID:     userID,
		Token:      req.Token,
		DeviceType: req.DeviceType,
	})
}

func (s *authService) issueTokens(ctx context.Context, userID int64) (string, string, error) {
	return issueTokenPair(ctx, s.cfg, s.rt, userID)
}

// issueTokenPair mints a short-lived JWT and a persisted opaque refresh token.
// Shared with social login.
func issueTokenPair(ctx context.Context, cfg config.Config, rt repository.RefreshTokenRepository, userID int64) (string, string, error) {
	accessToken, err := utils.GenerateToken(cfg.SecretKey, strconv.FormatInt(userID, 10), accessTokenTTL)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	refreshToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	err = rt.Create(ctx, &models.RefreshToken{
		Token:     refreshToken,
		UserID:    userID,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func toUserResponse(user *models.User) *transfer.UserResponse {
	return &transfer.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
}

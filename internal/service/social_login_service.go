package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/platform"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/feedmerge/server/pkg/utils"
)

// socialLoginStateOwner marks states issued before the caller has an account.
const socialLoginStateOwner int64 = 0

// SocialLoginService signs a user in (or up) through a platform OAuth flow.
// Accounts created here have no password; the connection doubles as the
// login credential.
type SocialLoginService interface {
	Start(ctx context.Context, platformName string) (*transfer.OAuthStartResponse, error)
	Exchange(ctx context.Context, req *transfer.OAuthExchangeRequest) (*transfer.RegisterResponse, error)
}

type socialLoginService struct {
	cfg      config.Config
	u        repository.UserRepository
	sc       repository.ConnectionRepository
	rt       repository.RefreshTokenRepository
	states   OAuthStateService
	registry AdapterRegistry
	cipher   *utils.TokenCipher
}

func NewSocialLoginService(
	cfg config.Config,
	u repository.UserRepository,
	sc repository.ConnectionRepository,
	rt repository.RefreshTokenRepository,
	states OAuthStateService,
	registry AdapterRegistry,
	cipher *utils.TokenCipher) SocialLoginService {
	return &socialLoginService{
		cfg:      cfg,
		u:        u,
		sc:       sc,
		rt:       rt,
		states:   states,
		registry: registry,
		cipher:   cipher,
	}
}

func (s *socialLoginService) Start(ctx context.Context, platformName string) (*transfer.OAuthStartResponse, error) {
	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return nil, apperror.Newf(apperror.Validation, "unsupported platform: %s", platformName)
	}

	state, err := s.states.Issue(ctx, socialLoginStateOwner, platformName)
	if err != nil {
		return nil, err
	}

	return &transfer.OAuthStartResponse{
		AuthorizationURL: adapter.AuthorizationURL(state),
	}, nil
}

// Exchange consumes the state, exchanges the code and signs the caller in.
// The platform identity resolves to an account in order: an existing
// connection, then a user with the profile's email, then a fresh account.
func (s *socialLoginService) Exchange(ctx context.Context, req *transfer.OAuthExchangeRequest) (*transfer.RegisterResponse, error) {
	adapter, err := s.registry.Get(req.Platform)
	if err != nil {
		return nil, apperror.Newf(apperror.Validation, "unsupported platform: %s", req.Platform)
	}

	ok, err := s.states.Validate(ctx, req.State, socialLoginStateOwner, req.Platform)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.Permission, "invalid or expired oauth state")
	}

	tokens, profile, err := adapter.Exchange(ctx, req.AuthorizationCode)
	if err != nil {
		return nil, apperror.Wrap(apperror.External, "token exchange failed", err)
	}

	user, conn, err := s.resolveUser(ctx, req.Platform, profile)
	if err != nil {
		return nil, err
	}

	encryptedAccess, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, apperror.Wrap(apperror.Crypto, "failed to encrypt access token", err)
	}
	encryptedRefresh, err := s.cipher.Encrypt(tokens.RefreshToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, apperror.Wrap(apperror.Crypto, "failed to encrypt refresh token", err)
	}

	updated := &models.SocialConnection{
		UserID:                user.ID,
		Platform:              req.Platform,
		PlatformUserID:        profile.PlatformUserID,
		PlatformUsername:      profile.Username,
		PlatformAvatarURL:     profile.AvatarURL,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		ExpiresAt:             tokens.ExpiresAt,
		Scopes:                adapter.Scopes(),
	}

	if conn == nil {
		conn, err = s.sc.GetActiveByUserAndPlatform(ctx, user.ID, req.Platform)
		if err != nil {
			return nil, err
		}
	}
	if conn != nil {
		if err := s.sc.UpdateOnExchange(ctx, conn.ID, updated); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.sc.Create(ctx, updated); err != nil {
			return nil, err
		}
	}

	accessToken, refreshToken, err := issueTokenPair(ctx, s.cfg, s.rt, user.ID)
	if err != nil {
		return nil, err
	}

	return &transfer.RegisterResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *socialLoginService) resolveUser(ctx context.Context, platformName string, profile *platform.Profile) (*models.User, *models.SocialConnection, error) {
	if profile.PlatformUserID == "" {
		return nil, nil, apperror.New(apperror.External, "platform profile is missing an id")
	}

	conn, err := s.sc.GetByPlatformUserID(ctx, platformName, profile.PlatformUserID)
	if err != nil {
		return nil, nil, err
	}
	if conn != nil {
		user, exists, err := s.u.GetByID(ctx, conn.UserID)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			if !user.IsActive {
				return nil, nil, apperror.New(apperror.Auth, "account is deactivated")
			}
			return user, conn, nil
		}
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		email = placeholderEmail(platformName, profile.PlatformUserID)
	}

	existing, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		if !existing.IsActive {
			return nil, nil, apperror.New(apperror.Auth, "account is deactivated")
		}
		return existing, nil, nil
	}

	name := profile.Name
	if name == "" {
		name = profile.Username
	}
	user := &models.User{
		Email:     email,
		Name:      name,
		AvatarURL: profile.AvatarURL,
		IsActive:  true,
	}
	id, err := s.u.Create(ctx, nil, user)
	if err != nil {
		return nil, nil, err
	}
	user.ID = id
	return user, nil, nil
}

// placeholderEmail synthesizes a deterministic address for platforms that do
// not return one, so the unique email column keeps holding.
func placeholderEmail(platformName, platformUserID string) string {
	return fmt.Sprintf("%s_%s@social.invalid", platformName, platformUserID)
}

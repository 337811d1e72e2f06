package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/platform"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/feedmerge/server/pkg/utils"
)

// AdapterRegistry resolves platform adapters. Satisfied by
// platform.Registry, tests install fakes.
type AdapterRegistry interface {
	Get(platform string) (platform.Adapter, error)
}

type ConnectionService interface {
	StartOAuth(ctx context.Context, userID int64, platformName string) (*transfer.OAuthStartResponse, error)
	CompleteOAuth(ctx context.Context, userID int64, req *transfer.OAuthExchangeRequest) (*transfer.ConnectionResponse, error)
	List(ctx context.Context, userID int64) ([]transfer.ConnectionResponse, error)
	Disconnect(ctx context.Context, userID, connectionID int64) error
	RefreshConnectionTokens(ctx context.Context, conn *models.SocialConnection) error
}

type connectionService struct {
	sc       repository.ConnectionRepository
	states   OAuthStateService
	registry AdapterRegistry
	cipher   *utils.TokenCipher
}

func NewConnectionService(
	sc repository.ConnectionRepository,
	states OAuthStateService,
	registry AdapterRegistry,
	cipher *utils.TokenCipher) ConnectionService {
	return &connectionService{
		sc:       sc,
		states:   states,
		registry: registry,
		cipher:   cipher,
	}
}

func (s *connectionService) StartOAuth(ctx context.Context, userID int64, platformName string) (*transfer.OAuthStartResponse, error) {
	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return nil, apperror.Newf(apperror.Validation, "unsupported platform: %s", platformName)
	}

	state, err := s.states.Issue(ctx, userID, platformName)
	if err != nil {
		return nil, err
	}

	return &transfer.OAuthStartResponse{
		AuthorizationURL: adapter.AuthorizationURL(state),
	}, nil
}

// CompleteOAuth consumes the state, exchanges the code and upserts the
// connection. One active connection per user and platform: an existing one is
// updated in place, keeping the stored refresh token when the exchange did
// not return a new one.
func (s *connectionService) CompleteOAuth(ctx context.Context, userID int64, req *transfer.OAuthExchangeRequest) (*transfer.ConnectionResponse, error) {
	adapter, err := s.registry.Get(req.Platform)
	if err != nil {
		return nil, apperror.Newf(apperror.Validation, "unsupported platform: %s", req.Platform)
	}

	ok, err := s.states.Validate(ctx, req.State, userID, req.Platform)
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

	conn := &models.SocialConnection{
		UserID:                userID,
		Platform:              req.Platform,
		PlatformUserID:        profile.PlatformUserID,
		PlatformUsername:      profile.Username,
		PlatformAvatarURL:     profile.AvatarURL,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		ExpiresAt:             tokens.ExpiresAt,
		Scopes:                adapter.Scopes(),
	}

	existing, err := s.sc.GetActiveByUserAndPlatform(ctx, userID, req.Platform)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.sc.UpdateOnExchange(ctx, existing.ID, conn); err != nil {
			return nil, err
		}
		conn.ID = existing.ID
	} else {
		id, err := s.sc.Create(ctx, conn)
		if err != nil {
			return nil, err
		}
		conn.ID = id
	}

	return &transfer.ConnectionResponse{
		ID:                conn.ID,
		Platform:          conn.Platform,
		PlatformUsername:  conn.PlatformUsername,
		PlatformAvatarURL: conn.PlatformAvatarURL,
	}, nil
}

func (s *connectionService) List(ctx context.Context, userID int64) ([]transfer.ConnectionResponse, error) {
	connections, err := s.sc.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]transfer.ConnectionResponse, 0, len(connections))
	for _, conn := range connections {
		responses = append(responses, transfer.ConnectionResponse{
			ID:                conn.ID,
			Platform:          conn.Platform,
			PlatformUsername:  conn.PlatformUsername,
			PlatformAvatarURL: conn.PlatformAvatarURL,
		})
	}
	return responses, nil
}

// Disconnect revokes platform access best effort and soft deletes the
// connection. Revocation failure never blocks the disconnect.
func (s *connectionService) Disconnect(ctx context.Context, userID, connectionID int64) error {
	conn, err := s.sc.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn == nil || !conn.IsActive {
		return apperror.New(apperror.NotFound, "connection not found")
	}
	if conn.UserID != userID {
		return apperror.New(apperror.Permission, "not authorized")
	}

	if adapter, err := s.registry.Get(conn.Platform); err == nil {
		accessToken := s.cipher.Decrypt(conn.EncryptedAccessToken)
		if accessToken != "" {
			creds := platform.Credentials{
				AccessToken:    accessToken,
				PlatformUserID: conn.PlatformUserID,
			}
			if err := adapter.Revoke(ctx, creds); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	return s.sc.Deactivate(ctx, connectionID)
}

// RefreshConnectionTokens runs one refresh round trip and persists the new
// tokens. Failures leave the connection untouched so the next publish attempt
// surfaces the expired token naturally.
func (s *connectionService) RefreshConnectionTokens(ctx context.Context, conn *models.SocialConnection) error {
	adapter, err := s.registry.Get(conn.Platform)
	if err != nil {
		return err
	}

	refreshToken := s.cipher.Decrypt(conn.EncryptedRefreshToken)
	if refreshToken == "" {
		return apperror.New(apperror.Crypto, "refresh token unavailable")
	}

	tokens, err := adapter.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	encryptedAccess, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return err
	}
	encryptedRefresh, err := s.cipher.Encrypt(tokens.RefreshToken)
	if err != nil {
		return err
	}

	expiresAt := tokens.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	return s.sc.UpdateTokens(ctx, conn.ID, encryptedAccess, encryptedRefresh, expiresAt)
}

package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type signedRequestPayload struct {
	UserID    string `json:"user_id"`
	Algorithm string `json:"algorithm"`
	IssuedAt  int64  `json:"issued_at"`
}

// ErasureService handles Facebook data deletion callbacks and full account
// erasure.
type ErasureService interface {
	HandleFacebookDeletion(ctx context.Context, signedRequest string) (*transfer.DataDeletionResponse, error)
	EraseUser(ctx context.Context, userID int64) error
}

type erasureService struct {
	cfg config.Config
	db  *sql.DB
	u   repository.UserRepository
	sc  repository.ConnectionRepository
	p   repository.PostRepository
	rt  repository.RefreshTokenRepository
	dt  repository.DeviceTokenRepository
}

func NewErasureService(
	cfg config.Config,
	db *sql.DB,
	u repository.UserRepository,
	sc repository.ConnectionRepository,
	p repository.PostRepository,
	rt repository.RefreshTokenRepository,
	dt repository.DeviceTokenRepository) ErasureService {
	return &erasureService{
		cfg: cfg,
		db:  db,
		u:   u,
		sc:  sc,
		p:   p,
		rt:  rt,
		dt:  dt,
	}
}

// HandleFacebookDeletion verifies the signed_request, erases the account that
// owns the matching connection and answers with a status URL and confirmation
// code as the platform requires.
func (s *erasureService) HandleFacebookDeletion(ctx context.Context, signedRequest string) (*transfer.DataDeletionResponse, error) {
	payload, err := parseSignedRequest(signedRequest, s.cfg.Facebook.ClientSecret)
	if err != nil {
		return nil, apperror.Wrap(apperror.Auth, "invalid signed request", err)
	}

	conn, err := s.sc.GetByPlatformUserID(ctx, models.PlatformFacebook, payload.UserID)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		if err := s.EraseUser(ctx, conn.UserID); err != nil {
			return nil, err
		}
	}

	code, err := gonanoid.New(12)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &transfer.DataDeletionResponse{
		URL:              fmt.Sprintf("%s?code=%s", s.cfg.StatusCheckURL, code),
		ConfirmationCode: code,
	}, nil
}

// EraseUser removes the account and everything that hangs off it in one
// transaction. Post targets go with their posts via cascade.
func (s *erasureService) EraseUser(ctx context.Context, userID int64) error {
	_, exists, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.New(apperror.NotFound, "user not found")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	if err := s.dt.RemoveByUserID(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.rt.RemoveByUserID(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.p.RemoveByUserID(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.sc.RemoveByUserID(ctx, tx, userID); err != nil {
		return err
	}
	if err := s.u.Remove(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// parseSignedRequest decodes Facebook's signed_request format,
// base64url(signature) "." base64url(json payload), and verifies the
// HMAC-SHA256 signature against the app secret.
func parseSignedRequest(signedRequest, appSecret string) (*signedRequestPayload, error) {
	parts := strings.SplitN(signedRequest, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed signed request")
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed signature: %w", err)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(parts[1]))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, fmt.Errorf("signature mismatch")
	}

	var payload signedRequestPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	if payload.UserID == "" {
		return nil, fmt.Errorf("payload missing user_id")
	}

	return &payload, nil
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetValid(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
	RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error
}

type refreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *refreshTokenRepository) GetValid(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	query := `
		SELECT id, token, user_id, expires_at, is_revoked, created_at
		FROM refresh_tokens
		WHERE token = $1 AND is_revoked = FALSE AND expires_at > $2
	`
	err := r.db.QueryRowContext(ctx, query, token, time.Now()).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.IsRevoked, &rt.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) (bool, error) {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1 AND is_revoked = FALSE`
	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (r *refreshTokenRepository) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/feedmerge/server/internal/models"
)

type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	ListActiveByUserID(ctx context.Context, userID int64) ([]*models.DeviceToken, error)
	RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error
}

type deviceTokenRepository struct {
	db *sql.DB
}

func NewDeviceTokenRepository(db *sql.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (user_id, token, device_type, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (token)
		DO UPDATE SET user_id = EXCLUDED.user_id, device_type = EXCLUDED.device_type, is_active = TRUE
	`
	_, err := r.db.ExecContext(ctx, query, token.UserID, token.Token, token.DeviceType)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *deviceTokenRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]*models.DeviceToken, error) {
	query := `
		SELECT id, user_id, token, device_type, is_active, created_at
		FROM device_tokens
		WHERE user_id = $1 AND is_active = TRUE
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.DeviceToken
	for rows.Next() {
		var t models.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.IsActive, &t.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tokens = append(tokens, &t)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return tokens, nil
}

func (r *deviceTokenRepository) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	query := `DELETE FROM device_tokens WHERE user_id = $1`

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

package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
	"github.com/lib/pq"
)

type ConnectionRepository interface {
	Create(ctx context.Context, sc *models.SocialConnection) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialConnection, error)
	GetActiveByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.SocialConnection, error)
	GetByPlatformUserID(ctx context.Context, platform, platformUserID string) (*models.SocialConnection, error)
	ListActiveByUserID(ctx context.Context, userID int64) ([]*models.SocialConnection, error)
	ListExpiring(ctx context.Context, cutoff time.Time) ([]*models.SocialConnection, error)
	UpdateOnExchange(ctx context.Context, id int64, sc *models.SocialConnection) error
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	Deactivate(ctx context.Context, id int64) error
	RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, user_id, platform, platform_user_id, platform_username,
	platform_avatar_url, encrypted_access_token, encrypted_refresh_token,
	expires_at, scopes, is_active, created_at, updated_at`

func scanConnection(row *sql.Row) (*models.SocialConnection, error) {
	var sc models.SocialConnection
	err := row.Scan(&sc.ID, &sc.UserID, &sc.Platform, &sc.PlatformUserID, &sc.PlatformUsername,
		&sc.PlatformAvatarURL, &sc.EncryptedAccessToken, &sc.EncryptedRefreshToken,
		&sc.ExpiresAt, pq.Array(&sc.Scopes), &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sc, nil
}

func (r *connectionRepository) Create(ctx context.Context, sc *models.SocialConnection) (int64, error) {
	query := `
		INSERT INTO social_connections (
			user_id,
			platform,
			platform_user_id,
			platform_username,
			platform_avatar_url,
			encrypted_access_token,
			encrypted_refresh_token,
			expires_at,
			scopes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sc.UserID,
		sc.Platform,
		sc.PlatformUserID,
		sc.PlatformUsername,
		sc.PlatformAvatarURL,
		sc.EncryptedAccessToken,
		sc.EncryptedRefreshToken,
		sc.ExpiresAt,
		pq.Array(sc.Scopes),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id int64) (*models.SocialConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM social_connections WHERE id = $1`
	return scanConnection(r.db.QueryRowContext(ctx, query, id))
}

func (r *connectionRepository) GetActiveByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.SocialConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM social_connections
		WHERE user_id = $1 AND platform = $2 AND is_active = TRUE`
	return scanConnection(r.db.QueryRowContext(ctx, query, userID, platform))
}

func (r *connectionRepository) GetByPlatformUserID(ctx context.Context, platform, platformUserID string) (*models.SocialConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM social_connections
		WHERE platform = $1 AND platform_user_id = $2`
	return scanConnection(r.db.QueryRowContext(ctx, query, platform, platformUserID))
}

func (r *connectionRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]*models.SocialConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM social_connections
		WHERE user_id = $1 AND is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.SocialConnection
	for rows.Next() {
		var sc models.SocialConnection
		err := rows.Scan(&sc.ID, &sc.UserID, &sc.Platform, &sc.PlatformUserID, &sc.PlatformUsername,
			&sc.PlatformAvatarURL, &sc.EncryptedAccessToken, &sc.EncryptedRefreshToken,
			&sc.ExpiresAt, pq.Array(&sc.Scopes), &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, &sc)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return connections, nil
}

// ListExpiring returns active connections whose access token expires at or
// before the cutoff and that hold a refresh token.
func (r *connectionRepository) ListExpiring(ctx context.Context, cutoff time.Time) ([]*models.SocialConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM social_connections
		WHERE is_active = TRUE
		AND encrypted_refresh_token <> ''
		AND expires_at <= $1`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.SocialConnection
	for rows.Next() {
		var sc models.SocialConnection
		err := rows.Scan(&sc.ID, &sc.UserID, &sc.Platform, &sc.PlatformUserID, &sc.PlatformUsername,
			&sc.PlatformAvatarURL, &sc.EncryptedAccessToken, &sc.EncryptedRefreshToken,
			&sc.ExpiresAt, pq.Array(&sc.Scopes), &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, &sc)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return connections, nil
}

// UpdateOnExchange refreshes tokens, profile fields and scopes after a
// successful OAuth exchange, reactivating the row. A missing refresh token in
// the exchange response must not clear the stored one.
func (r *connectionRepository) UpdateOnExchange(ctx context.Context, id int64, sc *models.SocialConnection) error {
	query := `
		UPDATE social_connections
		SET platform_user_id = $2,
			platform_username = $3,
			platform_avatar_url = $4,
			encrypted_access_token = $5,
			encrypted_refresh_token = COALESCE(NULLIF($6, ''), encrypted_refresh_token),
			expires_at = $7,
			scopes = $8,
			is_active = TRUE,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id,
		sc.PlatformUserID,
		sc.PlatformUsername,
		sc.PlatformAvatarURL,
		sc.EncryptedAccessToken,
		sc.EncryptedRefreshToken,
		sc.ExpiresAt,
		pq.Array(sc.Scopes),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_connections
		SET encrypted_access_token = COALESCE(NULLIF($2, ''), encrypted_access_token),
			encrypted_refresh_token = COALESCE(NULLIF($3, ''), encrypted_refresh_token),
			expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE social_connections SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	query := `DELETE FROM social_connections WHERE user_id = $1`

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

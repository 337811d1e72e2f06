package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, state *models.OAuthState) error
	Consume(ctx context.Context, state string, userID int64, platform string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type oauthStateRepository struct {
	db *sql.DB
}

func NewOAuthStateRepository(db *sql.DB) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

// Create stores a fresh state token, discarding any pending states for the
// same user and platform first so only the latest authorization attempt can
// complete.
func (r *oauthStateRepository) Create(ctx context.Context, state *models.OAuthState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM oauth_states WHERE user_id = $1 AND platform = $2`,
		state.UserID, state.Platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO oauth_states (state, user_id, platform, expires_at) VALUES ($1, $2, $3, $4)`,
		state.State, state.UserID, state.Platform, state.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Consume deletes the state row and reports whether it existed, belonged to
// the caller and had not expired. The delete makes each state single use even
// under concurrent exchange attempts.
func (r *oauthStateRepository) Consume(ctx context.Context, state string, userID int64, platform string) (bool, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND user_id = $2 AND platform = $3 AND expires_at > $4
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, state, userID, platform, time.Now()).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}

func (r *oauthStateRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at <= $1`, time.Now())
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

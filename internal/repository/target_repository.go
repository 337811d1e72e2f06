package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
)

type TargetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error)
	MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

type targetRepository struct {
	db *sql.DB
}

func NewTargetRepository(db *sql.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) (int64, error) {
	query := `
		INSERT INTO post_targets (post_id, connection_id, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, target.PostID, target.ConnectionID, target.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, target.PostID, target.ConnectionID, target.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *targetRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	query := `
		SELECT id, post_id, connection_id, platform_post_id, status, error_message, published_at, created_at, updated_at
		FROM post_targets
		WHERE post_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var targets []*models.PostTarget
	for rows.Next() {
		var t models.PostTarget
		err := rows.Scan(&t.ID, &t.PostID, &t.ConnectionID, &t.PlatformPostID,
			&t.Status, &t.ErrorMessage, &t.PublishedAt, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		targets = append(targets, &t)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return targets, nil
}

func (r *targetRepository) MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error {
	query := `
		UPDATE post_targets
		SET status = $2,
			platform_post_id = $3,
			error_message = '',
			published_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublished, platformPostID, publishedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *targetRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE post_targets
		SET status = $2,
			error_message = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusFailed, errorMessage)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

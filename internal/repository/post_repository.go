package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedmerge/server/internal/models"
	"github.com/lib/pq"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetPublishedAt(ctx context.Context, id int64, publishedAt time.Time) error
	ClaimDue(ctx context.Context, now time.Time) ([]int64, error)
	Remove(ctx context.Context, id int64) error
	RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content, media_urls, status, scheduled_at, published_at, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, content, media_urls, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.Content, pq.Array(post.MediaURLs), post.Status, post.ScheduledAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.Content, pq.Array(post.MediaURLs), post.Status, post.ScheduledAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.UserID, &post.Content, pq.Array(&post.MediaURLs),
		&post.Status, &post.ScheduledAt, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(&post.ID, &post.UserID, &post.Content, pq.Array(&post.MediaURLs),
			&post.Status, &post.ScheduledAt, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $2,
			media_urls = $3,
			status = $4,
			scheduled_at = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, post.ID, post.Content, pq.Array(post.MediaURLs), post.Status, post.ScheduledAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE posts SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetPublishedAt stamps the publish time once. Reruns of the publish job must
// not move an already recorded timestamp.
func (r *postRepository) SetPublishedAt(ctx context.Context, id int64, publishedAt time.Time) error {
	query := `UPDATE posts SET published_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND published_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id, publishedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ClaimDue atomically flips due scheduled posts out of the scheduled state and
// returns their ids. Concurrent scans never claim the same post twice.
func (r *postRepository) ClaimDue(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND scheduled_at IS NOT NULL AND scheduled_at <= $3
		RETURNING id
	`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPublished, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return ids, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	query := `DELETE FROM posts WHERE user_id = $1`

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

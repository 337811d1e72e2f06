package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID int64, req *transfer.PostCreation) (*transfer.PostResponse, error)
	Get(ctx context.Context, userID, postID int64) (*transfer.PostResponse, error)
	List(ctx context.Context, userID int64) ([]transfer.PostResponse, error)
	Update(ctx context.Context, userID, postID int64, req *transfer.PostUpdate) (*transfer.PostResponse, error)
	Delete(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db *sql.DB
	p  repository.PostRepository
	pt repository.TargetRepository
	sc repository.ConnectionRepository
}

func NewPostService(
	db *sql.DB,
	p repository.PostRepository,
	pt repository.TargetRepository,
	sc repository.ConnectionRepository) PostService {
	return &postService{
		db: db,
		p:  p,
		pt: pt,
		sc: sc,
	}
}

// Create validates every target connection and persists the post with its
// targets in one transaction. A request naming any connection that is
// missing, inactive or owned by someone else is rejected whole, listing the
// offending ids, rather than silently scheduling to fewer platforms than
// asked for.
func (s *postService) Create(ctx context.Context, userID int64, req *transfer.PostCreation) (*transfer.PostResponse, error) {
	var invalid []string
	for _, connID := range req.TargetConnectionIDs {
		conn, err := s.sc.GetByID(ctx, connID)
		if err != nil {
			return nil, err
		}
		if conn == nil || !conn.IsActive || conn.UserID != userID {
			invalid = append(invalid, fmt.Sprintf("%d", connID))
		}
	}
	if len(invalid) > 0 {
		return nil, apperror.Newf(apperror.Validation, "invalid target connection ids: %s", strings.Join(invalid, ", "))
	}

	status := models.PostStatusDraft
	var scheduledAt sql.NullTime
	if req.ScheduledAt != nil {
		status = models.PostStatusScheduled
		scheduledAt = sql.NullTime{Time: *req.ScheduledAt, Valid: true}
	}

	post := &models.Post{
		UserID:      userID,
		Content:     req.Content,
		MediaURLs:   req.MediaURLs,
		Status:      status,
		ScheduledAt: scheduledAt,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer tx.Rollback()

	postID, err := s.p.Create(ctx, tx, post)
	if err != nil {
		return nil, err
	}
	post.ID = postID

	for _, connID := range req.TargetConnectionIDs {
		_, err := s.pt.Create(ctx, tx, &models.PostTarget{
			PostID:       postID,
			ConnectionID: connID,
			Status:       status,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s.Get(ctx, userID, postID)
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*transfer.PostResponse, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	targets, err := s.pt.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	response := toPostResponse(post)
	for _, t := range targets {
		response.Targets = append(response.Targets, toTargetResponse(t))
	}
	return response, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]transfer.PostResponse, error) {
	posts, err := s.p.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]transfer.PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, *toPostResponse(post))
	}
	return responses, nil
}

func (s *postService) Update(ctx context.Context, userID, postID int64, req *transfer.PostUpdate) (*transfer.PostResponse, error) {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPublished {
		return nil, apperror.New(apperror.Conflict, "published posts cannot be updated")
	}

	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.MediaURLs != nil {
		post.MediaURLs = req.MediaURLs
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = sql.NullTime{Time: *req.ScheduledAt, Valid: true}
		post.Status = models.PostStatusScheduled
	}

	if err := s.p.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, postID)
}

func (s *postService) Delete(ctx context.Context, userID, postID int64) error {
	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPublished {
		return apperror.New(apperror.Conflict, "published posts cannot be deleted")
	}

	return s.p.Remove(ctx, postID)
}

func (s *postService) ownedPost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.p.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.New(apperror.NotFound, "post not found")
	}
	if post.UserID != userID {
		return nil, apperror.New(apperror.Permission, "not authorized")
	}
	return post, nil
}

func toPostResponse(post *models.Post) *transfer.PostResponse {
	response := &transfer.PostResponse{
		ID:        post.ID,
		Content:   post.Content,
		MediaURLs: post.MediaURLs,
		Status:    post.Status,
	}
	if post.ScheduledAt.Valid {
		t := post.ScheduledAt.Time
		response.ScheduledAt = &t
	}
	if post.PublishedAt.Valid {
		t := post.PublishedAt.Time
		response.PublishedAt = &t
	}
	return response
}

func toTargetResponse(t *models.PostTarget) transfer.TargetResponse {
	response := transfer.TargetResponse{
		ID:             t.ID,
		ConnectionID:   t.ConnectionID,
		PlatformPostID: t.PlatformPostID,
		Status:         t.Status,
		ErrorMessage:   t.ErrorMessage,
	}
	if t.PublishedAt.Valid {
		at := t.PublishedAt.Time
		response.PublishedAt = &at
	}
	return response
}

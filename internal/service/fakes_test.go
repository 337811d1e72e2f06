package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/platform"
)

type fakeConnectionRepo struct {
	connections map[int64]*models.SocialConnection
	nextID      int64
}

func newFakeConnectionRepo(connections ...*models.SocialConnection) *fakeConnectionRepo {
	repo := &fakeConnectionRepo{connections: make(map[int64]*models.SocialConnection), nextID: 1}
	for _, conn := range connections {
		if conn.ID >= repo.nextID {
			repo.nextID = conn.ID + 1
		}
		repo.connections[conn.ID] = conn
	}
	return repo
}

func (r *fakeConnectionRepo) Create(ctx context.Context, sc *models.SocialConnection) (int64, error) {
	sc.ID = r.nextID
	r.nextID++
	sc.IsActive = true
	r.connections[sc.ID] = sc
	return sc.ID, nil
}

func (r *fakeConnectionRepo) GetByID(ctx context.Context, id int64) (*models.SocialConnection, error) {
	return r.connections[id], nil
}

func (r *fakeConnectionRepo) GetActiveByUserAndPlatform(ctx context.Context, userID int64, platformName string) (*models.SocialConnection, error) {
	for _, conn := range r.connections {
		if conn.UserID == userID && conn.Platform == platformName && conn.IsActive {
			return conn, nil
		}
	}
	return nil, nil
}

func (r *fakeConnectionRepo) GetByPlatformUserID(ctx context.Context, platformName, platformUserID string) (*models.SocialConnection, error) {
	for _, conn := range r.connections {
		if conn.Platform == platformName && conn.PlatformUserID == platformUserID {
			return conn, nil
		}
	}
	return nil, nil
}

func (r *fakeConnectionRepo) ListActiveByUserID(ctx context.Context, userID int64) ([]*models.SocialConnection, error) {
	var out []*models.SocialConnection
	for _, conn := range r.connections {
		if conn.UserID == userID && conn.IsActive {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (r *fakeConnectionRepo) ListExpiring(ctx context.Context, cutoff time.Time) ([]*models.SocialConnection, error) {
	var out []*models.SocialConnection
	for _, conn := range r.connections {
		if conn.IsActive && conn.EncryptedRefreshToken != "" && !conn.ExpiresAt.After(cutoff) {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (r *fakeConnectionRepo) UpdateOnExchange(ctx context.Context, id int64, sc *models.SocialConnection) error {
	existing, ok := r.connections[id]
	if !ok {
		return errors.New("connection not found")
	}
	existing.PlatformUserID = sc.PlatformUserID
	existing.PlatformUsername = sc.PlatformUsername
	existing.PlatformAvatarURL = sc.PlatformAvatarURL
	existing.EncryptedAccessToken = sc.EncryptedAccessToken
	if sc.EncryptedRefreshToken != "" {
		existing.EncryptedRefreshToken = sc.EncryptedRefreshToken
	}
	existing.ExpiresAt = sc.ExpiresAt
	existing.Scopes = sc.Scopes
	existing.IsActive = true
	return nil
}

func (r *fakeConnectionRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	existing, ok := r.connections[id]
	if !ok {
		return errors.New("connection not found")
	}
	if accessToken != "" {
		existing.EncryptedAccessToken = accessToken
	}
	if refreshToken != "" {
		existing.EncryptedRefreshToken = refreshToken
	}
	existing.ExpiresAt = expiresAt
	return nil
}

func (r *fakeConnectionRepo) Deactivate(ctx context.Context, id int64) error {
	if conn, ok := r.connections[id]; ok {
		conn.IsActive = false
	}
	return nil
}

func (r *fakeConnectionRepo) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	for id, conn := range r.connections {
		if conn.UserID == userID {
			delete(r.connections, id)
		}
	}
	return nil
}

type fakePostRepo struct {
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post), nextID: 1}
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	post.ID = r.nextID
	r.nextID++
	copied := *post
	r.posts[post.ID] = &copied
	return post.ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.posts[id], nil
}

func (r *fakePostRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	var out []*models.Post
	for _, post := range r.posts {
		if post.UserID == userID {
			out = append(out, post)
		}
	}
	return out, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *models.Post) error {
	copied := *post
	r.posts[post.ID] = &copied
	return nil
}

func (r *fakePostRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if post, ok := r.posts[id]; ok {
		post.Status = status
	}
	return nil
}

func (r *fakePostRepo) SetPublishedAt(ctx context.Context, id int64, publishedAt time.Time) error {
	if post, ok := r.posts[id]; ok && !post.PublishedAt.Valid {
		post.PublishedAt = sql.NullTime{Time: publishedAt, Valid: true}
	}
	return nil
}

func (r *fakePostRepo) ClaimDue(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	for _, post := range r.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledAt.Valid && !post.ScheduledAt.Time.After(now) {
			post.Status = models.PostStatusPublished
			ids = append(ids, post.ID)
		}
	}
	return ids, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id int64) error {
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) RemoveByUserID(ctx context.Context, tx *sql.Tx, userID int64) error {
	for id, post := range r.posts {
		if post.UserID == userID {
			delete(r.posts, id)
		}
	}
	return nil
}

type fakeTargetRepo struct {
	targets map[int64]*models.PostTarget
	nextID  int64
}

func newFakeTargetRepo() *fakeTargetRepo {
	return &fakeTargetRepo{targets: make(map[int64]*models.PostTarget), nextID: 1}
}

func (r *fakeTargetRepo) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) (int64, error) {
	target.ID = r.nextID
	r.nextID++
	copied := *target
	r.targets[target.ID] = &copied
	return target.ID, nil
}

func (r *fakeTargetRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	var out []*models.PostTarget
	for _, target := range r.targets {
		if target.PostID == postID {
			out = append(out, target)
		}
	}
	return out, nil
}

func (r *fakeTargetRepo) MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error {
	if target, ok := r.targets[id]; ok {
		target.Status = models.PostStatusPublished
		target.PlatformPostID = platformPostID
		target.ErrorMessage = ""
		target.PublishedAt = sql.NullTime{Time: publishedAt, Valid: true}
	}
	return nil
}

func (r *fakeTargetRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	if target, ok := r.targets[id]; ok {
		target.Status = models.PostStatusFailed
		target.ErrorMessage = errorMessage
	}
	return nil
}

type fakeStateService struct {
	issued map[string]struct {
		userID   int64
		platform string
	}
}

func newFakeStateService() *fakeStateService {
	return &fakeStateService{issued: make(map[string]struct {
		userID   int64
		platform string
	})}
}

func (s *fakeStateService) Issue(ctx context.Context, userID int64, platformName string) (string, error) {
	state := "state-token"
	s.issued[state] = struct {
		userID   int64
		platform string
	}{userID, platformName}
	return state, nil
}

func (s *fakeStateService) Validate(ctx context.Context, state string, userID int64, platformName string) (bool, error) {
	entry, ok := s.issued[state]
	if !ok || entry.userID != userID || entry.platform != platformName {
		return false, nil
	}
	delete(s.issued, state)
	return true, nil
}

func (s *fakeStateService) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeAdapter is a scriptable platform adapter.
type fakeAdapter struct {
	name        string
	tokens      *platform.TokenSet
	profile     *platform.Profile
	exchangeErr error
	refreshErr  error
	publishID   string
	publishErr  error
	revoked     bool
}

func (a *fakeAdapter) Platform() string { return a.name }

func (a *fakeAdapter) Scopes() []string { return []string{"scope.read", "scope.write"} }

func (a *fakeAdapter) AuthorizationURL(state string) string {
	return "https://auth.example.com/authorize?state=" + state
}

func (a *fakeAdapter) Exchange(ctx context.Context, code string) (*platform.TokenSet, *platform.Profile, error) {
	if a.exchangeErr != nil {
		return nil, nil, a.exchangeErr
	}
	return a.tokens, a.profile, nil
}

func (a *fakeAdapter) Refresh(ctx context.Context, refreshToken string) (*platform.TokenSet, error) {
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	return a.tokens, nil
}

func (a *fakeAdapter) Publish(ctx context.Context, creds platform.Credentials, content string, mediaURLs []string) (string, error) {
	if a.publishErr != nil {
		return "", a.publishErr
	}
	return a.publishID, nil
}

func (a *fakeAdapter) Revoke(ctx context.Context, creds platform.Credentials) error {
	a.revoked = true
	return nil
}

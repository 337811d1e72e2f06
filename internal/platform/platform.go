// Package platform holds the per-network OAuth and publishing adapters. Each
// adapter normalizes its network's token and profile payloads so the rest of
// the system never sees platform specific shapes.
package platform

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var ErrUnsupported = errors.New("unsupported platform")

// TokenSet is a normalized OAuth token bundle. RefreshToken may be empty,
// some networks only issue one on first consent.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile is the platform side identity of a connected account.
type Profile struct {
	PlatformUserID string
	Username       string
	Name           string
	Email          string
	AvatarURL      string
}

// Credentials carries decrypted tokens into a publish or revoke call.
type Credentials struct {
	AccessToken    string
	RefreshToken   string
	PlatformUserID string
}

type Adapter interface {
	Platform() string
	Scopes() []string
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*TokenSet, *Profile, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
	Publish(ctx context.Context, creds Credentials, content string, mediaURLs []string) (string, error)
	Revoke(ctx context.Context, creds Credentials) error
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func expiryFromSeconds(seconds int) time.Time {
	return time.Now().Add(time.Second * time.Duration(seconds))
}

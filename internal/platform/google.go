package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/youtube.upload",
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAdapter connects Google accounts and publishes video posts through
// the YouTube data API.
type GoogleAdapter struct {
	oauth *oauth2.Config

	// Overridable for tests.
	UserInfoURL string
	RevokeURL   string
}

func NewGoogleAdapter(cfg config.Config) *GoogleAdapter {
	return &GoogleAdapter{
		oauth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
			Scopes:       googleScopes,
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: "https://www.googleapis.com/oauth2/v1/userinfo",
		RevokeURL:   "https://oauth2.googleapis.com/revoke",
	}
}

func (a *GoogleAdapter) Platform() string { return models.PlatformGoogle }

func (a *GoogleAdapter) Scopes() []string { return googleScopes }

func (a *GoogleAdapter) AuthorizationURL(state string) string {
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (a *GoogleAdapter) Exchange(ctx context.Context, code string) (*TokenSet, *Profile, error) {
	if a.oauth.ClientID == "" || a.oauth.ClientSecret == "" || a.oauth.RedirectURL == "" {
		err := errors.New("google oauth configuration is incomplete")
		slog.Info(err.Error())
		return nil, nil, err
	}

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, err
	}

	client := a.oauth.Client(ctx, token)
	info, err := a.fetchUserInfo(client)
	if err != nil {
		return nil, nil, err
	}

	tokens := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	profile := &Profile{
		PlatformUserID: info.ID,
		Username:       info.Email,
		Name:           info.Name,
		Email:          info.Email,
		AvatarURL:      info.Picture,
	}
	return tokens, profile, nil
}

func (a *GoogleAdapter) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Publish uploads the first media attachment to YouTube as a public video
// with the post content as its description.
func (a *GoogleAdapter) Publish(ctx context.Context, creds Credentials, content string, mediaURLs []string) (string, error) {
	if len(mediaURLs) == 0 {
		return "", errors.New("youtube publish requires a video attachment")
	}

	token := &oauth2.Token{AccessToken: creds.AccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	tempFile, err := downloadToTemp(ctx, mediaURLs[0])
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       videoTitle(content),
			Description: content,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Do()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return response.Id, nil
}

func (a *GoogleAdapter) Revoke(ctx context.Context, creds Credentials) error {
	payload := "token=" + creds.AccessToken

	req, err := http.NewRequestWithContext(ctx, "POST", a.RevokeURL, strings.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}

func (a *GoogleAdapter) fetchUserInfo(client *http.Client) (*googleUserInfo, error) {
	resp, err := client.Get(a.UserInfoURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}
	return &info, nil
}

// videoTitle derives a short title from the post content. YouTube caps
// titles at 100 characters.
func videoTitle(content string) string {
	title := content
	if idx := strings.IndexByte(title, '\n'); idx > 0 {
		title = title[:idx]
	}
	if len(title) > 100 {
		title = title[:100]
	}
	if title == "" {
		title = "New post"
	}
	return title
}

func downloadToTemp(ctx context.Context, fileURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "video-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		return "", fmt.Errorf("error saving media to temporary file: %w", err)
	}

	return tempFile.Name(), nil
}

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/models"
	"github.com/feedmerge/server/internal/transfer"
)

var tiktokScopes = []string{
	"user.info.basic",
	"user.info.profile",
	"video.publish",
	"video.upload",
}

type tiktokUserInfoResponse struct {
	Data struct {
		User struct {
			OpenID      string `json:"open_id"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			AvatarURL   string `json:"avatar_url"`
		} `json:"user"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type tiktokVideoPostInfo struct {
	Title                 string `json:"title"`
	PrivacyLevel          string `json:"privacy_level"`
	DisableDuet           bool   `json:"disable_duet"`
	DisableComment        bool   `json:"disable_comment"`
	DisableStitch         bool   `json:"disable_stitch"`
	VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
}

type tiktokVideoSourceInfo struct {
	Source   string `json:"source"`
	VideoURL string `json:"video_url"`
}

type tiktokVideoUploadRequest struct {
	PostInfo   tiktokVideoPostInfo   `json:"post_info"`
	SourceInfo tiktokVideoSourceInfo `json:"source_info"`
}

// TiktokAdapter connects TikTok accounts and publishes videos via the
// content posting API. TikTok's token endpoint takes client_key instead of
// client_id, so the exchange is done by hand rather than through the oauth2
// package.
type TiktokAdapter struct {
	clientKey    string
	clientSecret string
	redirectURI  string

	// Overridable for tests.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	PublishURL  string
	RevokeURL   string
}

func NewTiktokAdapter(cfg config.Config) *TiktokAdapter {
	return &TiktokAdapter{
		clientKey:    cfg.Tiktok.ClientID,
		clientSecret: cfg.Tiktok.ClientSecret,
		redirectURI:  cfg.Tiktok.RedirectURI,
		AuthURL:      "https://www.tiktok.com/v2/auth/authorize/",
		TokenURL:     "https://open.tiktokapis.com/v2/oauth/token/",
		UserInfoURL:  "https://open.tiktokapis.com/v2/user/info/?fields=open_id,avatar_url,display_name,username",
		PublishURL:   "https://open.tiktokapis.com/v2/post/publish/video/init/",
		RevokeURL:    "https://open.tiktokapis.com/v2/oauth/revoke/",
	}
}

func (a *TiktokAdapter) Platform() string { return models.PlatformTiktok }

func (a *TiktokAdapter) Scopes() []string { return tiktokScopes }

func (a *TiktokAdapter) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_key", a.clientKey)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(tiktokScopes, ","))
	params.Set("redirect_uri", a.redirectURI)
	params.Set("state", state)
	return a.AuthURL + "?" + params.Encode()
}

func (a *TiktokAdapter) Exchange(ctx context.Context, code string) (*TokenSet, *Profile, error) {
	if a.clientKey == "" || a.clientSecret == "" || a.redirectURI == "" {
		err := errors.New("tiktok oauth configuration is incomplete")
		slog.Info(err.Error())
		return nil, nil, err
	}

	data := url.Values{}
	data.Set("client_key", a.clientKey)
	data.Set("client_secret", a.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", a.redirectURI)

	tokenResponse, err := a.requestToken(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	info, err := a.fetchUserInfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	tokens := &TokenSet{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    expiryFromSeconds(tokenResponse.ExpiresIn),
	}
	profile := &Profile{
		PlatformUserID: info.Data.User.OpenID,
		Username:       info.Data.User.Username,
		Name:           info.Data.User.DisplayName,
		AvatarURL:      info.Data.User.AvatarURL,
	}
	return tokens, profile, nil
}

func (a *TiktokAdapter) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	data := url.Values{}
	data.Set("client_key", a.clientKey)
	data.Set("client_secret", a.clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	tokenResponse, err := a.requestToken(ctx, data)
	if err != nil {
		return nil, err
	}

	return &TokenSet{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    expiryFromSeconds(tokenResponse.ExpiresIn),
	}, nil
}

// Publish sends a direct post video init request. TikTok pulls the video
// from the media URL itself, so no upload round trip is needed here.
func (a *TiktokAdapter) Publish(ctx context.Context, creds Credentials, content string, mediaURLs []string) (string, error) {
	if len(mediaURLs) == 0 {
		return "", errors.New("tiktok publish requires a video attachment")
	}

	uploadRequest := tiktokVideoUploadRequest{
		PostInfo: tiktokVideoPostInfo{
			Title:                 content,
			PrivacyLevel:          "PUBLIC_TO_EVERYONE",
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: tiktokVideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: mediaURLs[0],
		},
	}

	jsonData, err := json.Marshal(uploadRequest)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.PublishURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	var result transfer.TiktokUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Info(result.Error.Message)
		return "", fmt.Errorf("tiktok publish failed: %s", result.Error.Message)
	}

	return result.Data.PublishID, nil
}

func (a *TiktokAdapter) Revoke(ctx context.Context, creds Credentials) error {
	data := url.Values{}
	data.Set("client_key", a.clientKey)
	data.Set("client_secret", a.clientSecret)
	data.Set("token", creds.AccessToken)

	req, err := http.NewRequestWithContext(ctx, "POST", a.RevokeURL, strings.NewReader(data.Encode()))
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

	var result transfer.TiktokRevokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token: %s", result.Error.Message)
	}
	return nil
}

func (a *TiktokAdapter) requestToken(ctx context.Context, data url.Values) (*transfer.TiktokTokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", a.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("tiktok token endpoint returned non-200 status")
		return nil, errors.New("tiktok token endpoint returned non-200 status")
	}

	var tokenResponse transfer.TiktokTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.Error != "" {
		slog.Info(tokenResponse.ErrorDescription)
		return nil, fmt.Errorf("tiktok token exchange failed: %s", tokenResponse.Error)
	}
	if tokenResponse.AccessToken == "" {
		slog.Info("tiktok token response missing access token")
		return nil, errors.New("tiktok token response missing access token")
	}

	return &tokenResponse, nil
}

func (a *TiktokAdapter) fetchUserInfo(ctx context.Context, accessToken string) (*tiktokUserInfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var result tiktokUserInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Info(result.Error.Message)
		return nil, fmt.Errorf("tiktok user info request failed with status %d: %s", resp.StatusCode, result.Error.Message)
	}
	// TikTok reports success as error code "ok".
	if result.Error.Code != "" && result.Error.Code != "ok" {
		slog.Info(result.Error.Message)
		return nil, fmt.Errorf("tiktok user info request failed: %s", result.Error.Message)
	}

	return &result, nil
}

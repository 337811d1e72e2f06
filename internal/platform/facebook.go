package platform

import (
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
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

var facebookScopes = []string{
	"public_profile",
	"email",
	"pages_manage_posts",
}

type facebookProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type facebookPublishResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	Error  struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// FacebookAdapter connects Facebook accounts and publishes to the account
// feed through the Graph API.
type FacebookAdapter struct {
	oauth        *oauth2.Config
	clientID     string
	clientSecret string

	// Overridable for tests.
	GraphURL string
}

func NewFacebookAdapter(cfg config.Config) *FacebookAdapter {
	return &FacebookAdapter{
		oauth: &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.RedirectURI,
			Scopes:       facebookScopes,
			Endpoint:     facebook.Endpoint,
		},
		clientID:     cfg.Facebook.ClientID,
		clientSecret: cfg.Facebook.ClientSecret,
		GraphURL:     "https://graph.facebook.com/v21.0",
	}
}

func (a *FacebookAdapter) Platform() string { return models.PlatformFacebook }

func (a *FacebookAdapter) Scopes() []string { return facebookScopes }

func (a *FacebookAdapter) AuthorizationURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// Exchange swaps the authorization code for a long lived token. Facebook
// issues no separate refresh token, the long lived token itself is the
// refresh credential, so it fills both slots of the token set.
func (a *FacebookAdapter) Exchange(ctx context.Context, code string) (*TokenSet, *Profile, error) {
	if a.oauth.ClientID == "" || a.oauth.ClientSecret == "" || a.oauth.RedirectURL == "" {
		err := errors.New("facebook oauth configuration is incomplete")
		slog.Info(err.Error())
		return nil, nil, err
	}

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return nil, nil, err
	}

	profile, err := a.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	tokens := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.AccessToken,
		ExpiresAt:    token.Expiry,
	}
	return tokens, profile, nil
}

// Refresh exchanges the stored long lived token for a fresh one using the
// fb_exchange_token grant.
func (a *FacebookAdapter) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", a.clientID)
	params.Set("client_secret", a.clientSecret)
	params.Set("fb_exchange_token", refreshToken)

	requestURL := a.GraphURL + "/oauth/access_token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("facebook token endpoint returned non-200 status")
		return nil, fmt.Errorf("facebook token exchange failed with status %d", resp.StatusCode)
	}

	var tokenResponse facebookTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if tokenResponse.AccessToken == "" {
		return nil, errors.New("facebook token exchange returned no access token")
	}

	return &TokenSet{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.AccessToken,
		ExpiresAt:    expiryFromSeconds(tokenResponse.ExpiresIn),
	}, nil
}

// Publish posts to the account feed. Posts with media go through the photos
// edge with the content as caption, text only posts go to the feed edge.
func (a *FacebookAdapter) Publish(ctx context.Context, creds Credentials, content string, mediaURLs []string) (string, error) {
	data := url.Values{}
	data.Set("access_token", creds.AccessToken)

	var endpoint string
	if len(mediaURLs) > 0 {
		endpoint = a.GraphURL + "/me/photos"
		data.Set("url", mediaURLs[0])
		data.Set("caption", content)
	} else {
		endpoint = a.GraphURL + "/me/feed"
		data.Set("message", content)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	var result facebookPublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		slog.Info(result.Error.Message)
		return "", fmt.Errorf("facebook publish failed: %s", result.Error.Message)
	}

	if result.PostID != "" {
		return result.PostID, nil
	}
	return result.ID, nil
}

func (a *FacebookAdapter) Revoke(ctx context.Context, creds Credentials) error {
	params := url.Values{}
	params.Set("access_token", creds.AccessToken)

	requestURL := a.GraphURL + "/me/permissions?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "DELETE", requestURL, nil)
	if err != nil {
		return err
	}

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

func (a *FacebookAdapter) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	params := url.Values{}
	params.Set("fields", "id,name,email,picture")
	params.Set("access_token", accessToken)

	requestURL := a.GraphURL + "/me?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var fb facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &Profile{
		PlatformUserID: fb.ID,
		Username:       fb.Name,
		Name:           fb.Name,
		Email:          fb.Email,
		AvatarURL:      fb.Picture.Data.URL,
	}, nil
}

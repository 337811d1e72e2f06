package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/feedmerge/server/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFacebookAdapter() *FacebookAdapter {
	return NewFacebookAdapter(config.Config{
		Facebook: config.OAuthClient{
			ClientID:     "fb-app-id",
			ClientSecret: "fb-app-secret",
			RedirectURI:  "https://app.example.com/callback",
		},
	})
}

func TestFacebookRefreshUsesExchangeTokenGrant(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		assert.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "old-long-lived", r.URL.Query().Get("fb_exchange_token"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "new-long-lived",
			"expires_in":   5184000,
		})
	}))
	defer graph.Close()

	adapter := testFacebookAdapter()
	adapter.GraphURL = graph.URL

	tokens, err := adapter.Refresh(context.Background(), "old-long-lived")
	require.NoError(t, err)

	assert.Equal(t, "new-long-lived", tokens.AccessToken)
	// The long lived token doubles as the refresh credential.
	assert.Equal(t, "new-long-lived", tokens.RefreshToken)
	assert.False(t, tokens.ExpiresAt.IsZero())
}

func TestFacebookPublishTextGoesToFeed(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/feed", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello facebook", r.Form.Get("message"))

		json.NewEncoder(w).Encode(map[string]any{"id": "1234_5678"})
	}))
	defer graph.Close()

	adapter := testFacebookAdapter()
	adapter.GraphURL = graph.URL

	id, err := adapter.Publish(context.Background(), Credentials{AccessToken: "token"}, "hello facebook", nil)
	require.NoError(t, err)
	assert.Equal(t, "1234_5678", id)
}

func TestFacebookPublishMediaGoesToPhotos(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/photos", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://cdn.example.com/pic.jpg", r.Form.Get("url"))
		assert.Equal(t, "caption text", r.Form.Get("caption"))

		json.NewEncoder(w).Encode(map[string]any{"id": "999", "post_id": "1234_999"})
	}))
	defer graph.Close()

	adapter := testFacebookAdapter()
	adapter.GraphURL = graph.URL

	id, err := adapter.Publish(context.Background(), Credentials{AccessToken: "token"}, "caption text",
		[]string{"https://cdn.example.com/pic.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "1234_999", id)
}

func TestFacebookPublishErrorSurfacesMessage(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "token expired", "code": 190},
		})
	}))
	defer graph.Close()

	adapter := testFacebookAdapter()
	adapter.GraphURL = graph.URL

	_, err := adapter.Publish(context.Background(), Credentials{AccessToken: "stale"}, "text", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

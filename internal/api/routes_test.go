package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/api/handlers"
	"github.com/maheshrc27/glowpost/internal/api/middleware"
	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository/memstore"
	"github.com/maheshrc27/glowpost/internal/service"
	"github.com/maheshrc27/glowpost/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type nopUploader struct{}

func (nopUploader) Upload(context.Context, string, []byte, string) error { return nil }

type testServer struct {
	app   *fiber.App
	store *memstore.Store
	cfg   config.Config
}

func newFakeTwitter(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"tw-99","name":"Glow","username":"glow","public_metrics":{"followers_count":10}}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) *testServer {
	provider := newFakeTwitter(t)
	cfg := config.Config{
		AppURL:             "http://api.test",
		FrontendURL:        "http://app.test",
		SecretKey:          "test-secret",
		TokenEncryptionKey: "0123456789abcdef0123456789abcdef",
		CookieName:         "glowpost_session",
		Twitter:            config.OAuthApp{ClientID: "tw-client", ClientSecret: "tw-secret"},
		Facebook:           config.OAuthApp{ClientID: "YOUR_APP_ID"},
		OAuthTimeout:       5 * time.Second,
	}

	providers := service.DefaultProviders()
	tw := providers[models.PlatformTwitter]
	tw.Endpoint = oauth2.Endpoint{AuthURL: provider.URL + "/authorize", TokenURL: provider.URL + "/token", AuthStyle: oauth2.AuthStyleInHeader}
	tw.ProfileURL = provider.URL + "/me"
	providers[models.PlatformTwitter] = tw

	store := memstore.New()
	postService := service.NewPostService(cfg, store.Posts(), store.Accounts(), store.History())

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Auth:     handlers.NewAuthHandler(cfg, service.NewAuthService(cfg, store.Users())),
		User:     handlers.NewUserHandler(service.NewUserService(store.Users())),
		Platform: handlers.NewPlatformHandler(service.NewPlatformService(store.Accounts()), service.NewConnectorService(cfg, store.Accounts(), providers), cfg),
		Post:     handlers.NewPostHandler(postService),
		Media:    handlers.NewMediaHandler(service.NewMediaService(nopUploader{}, true, "https://media.test", 1<<20), 1<<20),
	}, middleware.NewAuthMiddleware(cfg))

	return &testServer{app: app, store: store, cfg: cfg}
}

func (s *testServer) token(t *testing.T, userID int64) string {
	token, err := utils.GenerateToken(s.cfg.SecretKey, fmt.Sprint(userID), "", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, userID int64, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(t, userID))
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) connectTwitter(t *testing.T, userID int64) {
	t.Helper()
	resp := s.do(t, "GET", "/auth/twitter", userID, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	authURL, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := authURL.Query().Get("state")

	resp = s.do(t, "GET", "/auth/twitter/callback?code=good-code&state="+url.QueryEscape(state), 0, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "http://app.test/social?connected=twitter", resp.Header.Get("Location"))
}

func TestConnectScheduleListDelete(t *testing.T) {
	s := newTestServer(t)
	s.connectTwitter(t, 1)

	resp := s.do(t, "GET", "/api/social/accounts", 1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	accounts := decode[[]map[string]any](t, resp)
	require.Len(t, accounts, 1)
	assert.Equal(t, true, accounts[0]["connected"])
	assert.NotContains(t, accounts[0], "accessToken")
	accountID := int64(accounts[0]["id"].(float64))

	when := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	resp = s.do(t, "POST", "/api/social/posts", 1, map[string]any{
		"accountId":    accountID,
		"content":      "Hydration tip of the day",
		"scheduledFor": when,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decode[models.Post](t, resp)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Equal(t, models.PlatformTwitter, post.Platform)

	resp = s.do(t, "GET", "/api/social/posts/scheduled", 1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 1)

	resp = s.do(t, "DELETE", fmt.Sprintf("/api/social/posts/%d", post.ID), 2, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found or not authorized", decode[map[string]string](t, resp)["message"])

	resp = s.do(t, "DELETE", fmt.Sprintf("/api/social/posts/%d", post.ID), 1, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, "GET", "/api/social/posts/scheduled", 1, nil)
	assert.Empty(t, decode[[]models.Post](t, resp))
}

func TestCallbackFailureRedirectsWithoutWriting(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "GET", "/auth/twitter", 1, nil)
	authURL, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	resp = s.do(t, "GET", "/auth/twitter/callback?code=bad-code&state="+url.QueryEscape(authURL.Query().Get("state")), 0, nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://app.test/social?error=oauth_failed", resp.Header.Get("Location"))

	resp = s.do(t, "GET", "/auth/twitter/callback?error=access_denied", 0, nil)
	assert.Equal(t, "http://app.test/social?error=oauth_failed", resp.Header.Get("Location"))

	accounts, err := s.store.Accounts().ListByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestConnectRejectsPlaceholderAppID(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "GET", "/auth/facebook", 1, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or missing app ID for facebook", decode[map[string]string](t, resp)["message"])
}

func TestConnectAcceptsQueryToken(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/auth/twitter?token="+s.token(t, 1), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest("GET", "/auth/twitter", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestScheduleErrors(t *testing.T) {
	s := newTestServer(t)
	s.connectTwitter(t, 1)

	accounts, err := s.store.Accounts().ListByUserID(context.Background(), 1)
	require.NoError(t, err)
	accountID := accounts[0].ID

	tests := []struct {
		name   string
		userID int64
		body   map[string]any
		status int
	}{
		{name: "past time", userID: 1, body: map[string]any{"accountId": accountID, "content": "x", "scheduledFor": "2000-01-01T00:00:00Z"}, status: fiber.StatusBadRequest},
		{name: "empty content", userID: 1, body: map[string]any{"accountId": accountID, "content": "", "scheduledFor": "2999-01-01T00:00:00Z"}, status: fiber.StatusBadRequest},
		{name: "foreign account", userID: 2, body: map[string]any{"accountId": accountID, "content": "x", "scheduledFor": "2999-01-01T00:00:00Z"}, status: fiber.StatusNotFound},
		{name: "unauthenticated", userID: 0, body: map[string]any{"accountId": accountID}, status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, "POST", "/api/social/posts", tt.userID, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[map[string]string](t, resp)["message"])
		})
	}
}

func TestPublisherStatusUpdatesAndHistory(t *testing.T) {
	s := newTestServer(t)
	s.connectTwitter(t, 1)
	accounts, err := s.store.Accounts().ListByUserID(context.Background(), 1)
	require.NoError(t, err)

	resp := s.do(t, "POST", "/api/social/posts", 1, map[string]any{
		"accountId":    accounts[0].ID,
		"content":      "Night routine",
		"scheduledFor": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decode[models.Post](t, resp)
	path := fmt.Sprintf("/api/social/posts/%d", post.ID)

	resp = s.do(t, "PATCH", path, 1, map[string]any{"status": "published"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PostStatusPublished, decode[models.Post](t, resp).Status)

	resp = s.do(t, "PATCH", path, 1, map[string]any{"status": "failed", "reason": "late"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PostStatusPublished, decode[models.Post](t, resp).Status)

	resp = s.do(t, "GET", path+"/history", 1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.PostingHistory](t, resp), 1)

	resp = s.do(t, "DELETE", path, 1, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDisconnectCascadesScheduledPosts(t *testing.T) {
	s := newTestServer(t)
	s.connectTwitter(t, 1)
	accounts, err := s.store.Accounts().ListByUserID(context.Background(), 1)
	require.NoError(t, err)
	accountID := accounts[0].ID

	resp := s.do(t, "POST", "/api/social/posts", 1, map[string]any{
		"accountId":    accountID,
		"content":      "Retinol reminder",
		"scheduledFor": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = s.do(t, "DELETE", fmt.Sprintf("/api/social/accounts/%d", accountID), 2, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = s.do(t, "DELETE", fmt.Sprintf("/api/social/accounts/%d", accountID), 1, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, "GET", "/api/social/accounts", 1, nil)
	listed := decode[[]map[string]any](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, false, listed[0]["connected"])

	resp = s.do(t, "GET", "/api/social/posts", 1, nil)
	assert.Empty(t, decode[[]models.Post](t, resp))
}

func TestMediaUpload(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "face.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/social/media", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, 3))

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Contains(t, decode[map[string]any](t, resp)["url"], "https://media.test/users/3/")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

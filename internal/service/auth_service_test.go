package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository/memstore"
	"github.com/maheshrc27/glowpost/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newGoogleFake(t *testing.T, email string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "google-access", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "g-1", "email": email, "name": "Ada", "picture": "https://img/ada.png"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestAuthService(t *testing.T, email string) (*authService, *memstore.Store) {
	server := newGoogleFake(t, email)
	cfg := testConfig()
	cfg.GoogleClientID = "google-client"
	cfg.GoogleClientSecret = "google-secret"
	cfg.GoogleRedirectURI = "http://api.test/login/callback"

	store := memstore.New()
	svc := NewAuthService(cfg, store.Users()).(*authService)
	svc.endpoint = oauth2.Endpoint{AuthURL: server.URL + "/authorize", TokenURL: server.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	svc.userInfoURL = server.URL + "/userinfo"
	return svc, store
}

func TestLoginCallbackCreatesThenReusesUser(t *testing.T) {
	svc, store := newTestAuthService(t, "ada@example.com")

	var tokens []string
	for i := 0; i < 2; i++ {
		loginURL, err := svc.LoginURL()
		require.NoError(t, err)
		u, err := url.Parse(loginURL)
		require.NoError(t, err)
		assert.Equal(t, "http://api.test/login/callback", u.Query().Get("redirect_uri"))

		token, err := svc.LoginCallback(context.Background(), "code", u.Query().Get("state"))
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	for _, token := range tokens {
		claims, err := utils.ValidateToken("test-secret", token)
		require.NoError(t, err)
		assert.Equal(t, "1", claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
	}

	user, ok, err := store.Users().GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "g-1", user.GoogleID)
	assert.Equal(t, "Ada", user.Name)

	_, ok, err = store.Users().GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginCallbackRejectsConnectState(t *testing.T) {
	svc, _ := newTestAuthService(t, "ada@example.com")

	connector := NewConnectorService(testConfig(), memstore.New().Accounts(), DefaultProviders())
	connectURL, err := connector.BuildAuthorizationURL(context.Background(), "facebook", 1)
	require.NoError(t, err)

	_, err = svc.LoginCallback(context.Background(), "code", stateFromURL(t, connectURL))
	var oe *OAuthExchangeError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "state", oe.Step)
}

func TestLoginURLRequiresGoogleCredentials(t *testing.T) {
	svc := NewAuthService(testConfig(), memstore.New().Users())

	_, err := svc.LoginURL()
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "google", ce.Platform)
}

func TestGetUserInfo(t *testing.T) {
	store := memstore.New()
	id, err := store.Users().Create(context.Background(), &models.User{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	svc := NewUserService(store.Users())

	user, err := svc.GetUserInfo(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	_, err = svc.GetUserInfo(context.Background(), id+1)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

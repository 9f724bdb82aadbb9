package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/metrics"
	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
	"github.com/maheshrc27/glowpost/internal/transfer"
	"github.com/maheshrc27/glowpost/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const stateTTL = 10 * time.Minute

const maxProfileBytes = 1 << 20

// Provider describes how to run the authorization code flow against one
// social network and how to read the connected profile afterwards.
type Provider struct {
	Endpoint   oauth2.Endpoint
	Scopes     []string
	ProfileURL string
	// TokenInQuery also sends the access token as ?access_token=, which the
	// Graph APIs expect.
	TokenInQuery bool
	PKCE         bool
	ParseProfile func(body []byte) (*transfer.SocialProfile, error)
}

func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		models.PlatformFacebook: {
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"pages_show_list,pages_read_engagement,pages_manage_posts"},
			ProfileURL:   "https://graph.facebook.com/me?fields=id,name,picture{url}",
			TokenInQuery: true,
			ParseProfile: parseFacebookProfile,
		},
		models.PlatformInstagram: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://api.instagram.com/oauth/authorize",
				TokenURL:  "https://api.instagram.com/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes:       []string{"user_profile,user_media"},
			ProfileURL:   "https://graph.instagram.com/me?fields=id,username,name,profile_picture_url,followers_count",
			TokenInQuery: true,
			ParseProfile: parseInstagramProfile,
		},
		models.PlatformTwitter: {
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://twitter.com/i/oauth2/authorize",
				TokenURL:  "https://api.twitter.com/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
			Scopes:       []string{"tweet.read", "users.read", "offline.access"},
			ProfileURL:   "https://api.twitter.com/2/users/me?user.fields=profile_image_url,public_metrics",
			PKCE:         true,
			ParseProfile: parseTwitterProfile,
		},
	}
}

type ConnectorService interface {
	BuildAuthorizationURL(ctx context.Context, platform string, userID int64) (string, error)
	HandleCallback(ctx context.Context, platform, code, state string) (*models.SocialAccount, error)
}

type connectorService struct {
	cfg       config.Config
	sa        repository.SocialAccountRepository
	providers map[string]Provider
	client    *http.Client
	timeout   time.Duration
}

func NewConnectorService(cfg config.Config, sa repository.SocialAccountRepository, providers map[string]Provider) ConnectorService {
	timeout := cfg.OAuthTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &connectorService{
		cfg:       cfg,
		sa:        sa,
		providers: providers,
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
	}
}

func (s *connectorService) BuildAuthorizationURL(ctx context.Context, platform string, userID int64) (string, error) {
	if userID <= 0 {
		return "", &ValidationError{Message: "User is not valid"}
	}

	conf, provider, err := s.oauthConfig(platform)
	if err != nil {
		slog.Info(err.Error(), "platform", platform)
		return "", err
	}

	now := time.Now()
	claims := transfer.OAuthStateClaims{
		Platform: platform,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}

	var opts []oauth2.AuthCodeOption
	if provider.PKCE {
		verifier := oauth2.GenerateVerifier()
		sealed, err := utils.Encrypt([]byte(verifier), []byte(s.cfg.TokenEncryptionKey))
		if err != nil {
			return "", err
		}
		claims.Verifier = sealed
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}

	state, err := utils.SignState(s.cfg.SecretKey, &claims)
	if err != nil {
		return "", err
	}

	return conf.AuthCodeURL(state, opts...), nil
}

// HandleCallback completes a connect flow. Nothing is written unless every
// step before the final upsert succeeded.
func (s *connectorService) HandleCallback(ctx context.Context, platform, code, state string) (account *models.SocialAccount, err error) {
	if models.IsPlatform(platform) {
		defer func() { metrics.RecordConnect(platform, err == nil) }()
	}

	fail := func(step string, cause error) error {
		slog.Info(cause.Error(), "platform", platform, "step", step)
		return &OAuthExchangeError{Platform: platform, Step: step, Err: cause}
	}

	conf, provider, err := s.oauthConfig(platform)
	if err != nil {
		return nil, fail("config", err)
	}

	claims := &transfer.OAuthStateClaims{}
	if err := utils.ParseState(s.cfg.SecretKey, state, claims); err != nil {
		return nil, fail("state", err)
	}
	if claims.Platform != platform {
		return nil, fail("state", fmt.Errorf("state was issued for %q", claims.Platform))
	}
	if claims.UserID <= 0 {
		return nil, fail("state", errors.New("state carries no user"))
	}

	if code == "" {
		return nil, fail("exchange", errors.New("authorization code is missing"))
	}

	key := []byte(s.cfg.TokenEncryptionKey)

	var opts []oauth2.AuthCodeOption
	if provider.PKCE {
		if claims.Verifier == "" {
			return nil, fail("state", errors.New("state carries no code verifier"))
		}
		verifier, err := utils.Decrypt(claims.Verifier, key)
		if err != nil {
			return nil, fail("state", err)
		}
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	remoteCtx = context.WithValue(remoteCtx, oauth2.HTTPClient, s.client)

	token, err := conf.Exchange(remoteCtx, code, opts...)
	if err != nil {
		return nil, fail("exchange", err)
	}

	profile, err := s.fetchProfile(remoteCtx, provider, token)
	if err != nil {
		return nil, fail("profile", err)
	}
	if profile.ID == "" {
		return nil, fail("profile", errors.New("profile has no id"))
	}

	accessToken, err := utils.Encrypt([]byte(token.AccessToken), key)
	if err != nil {
		return nil, fail("encrypt", err)
	}
	refreshToken, err := utils.EncryptOptional(token.RefreshToken, key)
	if err != nil {
		return nil, fail("encrypt", err)
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		expiresAt = &expiry
	}

	account, err = s.sa.Upsert(ctx, &models.SocialAccount{
		UserID:            claims.UserID,
		Platform:          platform,
		ProviderAccountID: profile.ID,
		Username:          profile.Username,
		DisplayName:       profile.DisplayName,
		AvatarURL:         profile.AvatarURL,
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		TokenExpiresAt:    expiresAt,
		Followers:         profile.Followers,
	})
	if err != nil {
		return nil, fail("store", storeError("upsert social account", 0, err))
	}

	slog.Info("social account connected", "platform", platform, "account_id", account.ID, "user_id", account.UserID)
	return account, nil
}

func (s *connectorService) oauthConfig(platform string) (*oauth2.Config, Provider, error) {
	provider, ok := s.providers[platform]
	if !models.IsPlatform(platform) || !ok {
		return nil, Provider{}, &ValidationError{Message: "Unsupported platform"}
	}

	app, _ := s.cfg.OAuthApp(platform)
	if isPlaceholderClientID(app.ClientID) {
		return nil, Provider{}, &ConfigurationError{Platform: platform}
	}
	if err := utils.CheckKey([]byte(s.cfg.TokenEncryptionKey)); err != nil {
		slog.Info(err.Error())
		return nil, Provider{}, &ConfigurationError{Platform: platform, Message: "Token encryption key is not configured"}
	}

	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		Endpoint:     provider.Endpoint,
		RedirectURL:  s.cfg.CallbackURL(platform),
		Scopes:       provider.Scopes,
	}, provider, nil
}

func (s *connectorService) fetchProfile(ctx context.Context, provider Provider, token *oauth2.Token) (*transfer.SocialProfile, error) {
	profileURL, err := url.Parse(provider.ProfileURL)
	if err != nil {
		return nil, err
	}
	if provider.TokenInQuery {
		q := profileURL.Query()
		q.Set("access_token", token.AccessToken)
		profileURL.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request returned %d", resp.StatusCode)
	}

	return provider.ParseProfile(body)
}

var placeholderClientIDs = []string{"changeme", "placeholder", "xxx"}

func isPlaceholderClientID(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || strings.HasPrefix(id, "your_") || strings.HasPrefix(id, "<") {
		return true
	}
	for _, p := range placeholderClientIDs {
		if id == p {
			return true
		}
	}
	return false
}

func parseFacebookProfile(body []byte) (*transfer.SocialProfile, error) {
	var fb transfer.FacebookProfile
	if err := json.Unmarshal(body, &fb); err != nil {
		return nil, err
	}
	return &transfer.SocialProfile{
		ID:          fb.ID,
		Username:    fb.Name,
		DisplayName: fb.Name,
		AvatarURL:   fb.Picture.Data.URL,
	}, nil
}

func parseInstagramProfile(body []byte) (*transfer.SocialProfile, error) {
	var ig transfer.InstagramUserInfo
	if err := json.Unmarshal(body, &ig); err != nil {
		return nil, err
	}
	displayName := ig.Name
	if displayName == "" {
		displayName = ig.Username
	}
	return &transfer.SocialProfile{
		ID:          ig.UserID,
		Username:    ig.Username,
		DisplayName: displayName,
		AvatarURL:   ig.ProfilePicture,
		Followers:   ig.FollowersCount,
	}, nil
}

func parseTwitterProfile(body []byte) (*transfer.SocialProfile, error) {
	var tw transfer.TwitterUserResponse
	if err := json.Unmarshal(body, &tw); err != nil {
		return nil, err
	}
	return &transfer.SocialProfile{
		ID:          tw.Data.ID,
		Username:    tw.Data.Username,
		DisplayName: tw.Data.Name,
		AvatarURL:   tw.Data.ProfileImageURL,
		Followers:   tw.Data.PublicMetrics.FollowersCount,
	}, nil
}

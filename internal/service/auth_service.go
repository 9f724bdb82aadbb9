package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
	"github.com/maheshrc27/glowpost/internal/transfer"
	"github.com/maheshrc27/glowpost/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	sessionTTL        = 24 * time.Hour
	loginStatePurpose = "login"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
)

type AuthService interface {
	LoginURL() (string, error)
	// LoginCallback signs the user in and returns a bearer token for the API.
	LoginCallback(ctx context.Context, code, state string) (string, error)
}

type authService struct {
	cfg         config.Config
	u           repository.UserRepository
	endpoint    oauth2.Endpoint
	userInfoURL string
	client      *http.Client
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	timeout := cfg.OAuthTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &authService{
		cfg:         cfg,
		u:           u,
		endpoint:    google.Endpoint,
		userInfoURL: googleUserInfoURL,
		client:      &http.Client{Timeout: timeout},
	}
}

func (s *authService) oauthConfig() (*oauth2.Config, error) {
	if isPlaceholderClientID(s.cfg.GoogleClientID) || s.cfg.GoogleClientSecret == "" {
		return nil, &ConfigurationError{Platform: "google"}
	}
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     s.endpoint,
	}, nil
}

func (s *authService) LoginURL() (string, error) {
	conf, err := s.oauthConfig()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	now := time.Now()
	state, err := utils.SignState(s.cfg.SecretKey, &transfer.OAuthStateClaims{
		Platform: loginStatePurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	})
	if err != nil {
		return "", err
	}

	return conf.AuthCodeURL(state), nil
}

func (s *authService) LoginCallback(ctx context.Context, code, state string) (string, error) {
	fail := func(step string, cause error) error {
		slog.Info(cause.Error(), "step", step)
		return &OAuthExchangeError{Platform: "google", Step: step, Err: cause}
	}

	conf, err := s.oauthConfig()
	if err != nil {
		return "", fail("config", err)
	}

	claims := &transfer.OAuthStateClaims{}
	if err := utils.ParseState(s.cfg.SecretKey, state, claims); err != nil {
		return "", fail("state", err)
	}
	if claims.Platform != loginStatePurpose {
		return "", fail("state", errors.New("state was not issued for sign-in"))
	}
	if code == "" {
		return "", fail("exchange", errors.New("authorization code is missing"))
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.client.Timeout)
	defer cancel()
	remoteCtx = context.WithValue(remoteCtx, oauth2.HTTPClient, s.client)

	token, err := conf.Exchange(remoteCtx, code)
	if err != nil {
		return "", fail("exchange", err)
	}

	userInfo, err := s.fetchUserInfo(remoteCtx, conf.Client(remoteCtx, token))
	if err != nil {
		return "", fail("profile", err)
	}
	if userInfo.Email == "" {
		return "", fail("profile", errors.New("google account has no email"))
	}

	userID, err := s.findOrCreateUser(ctx, userInfo)
	if err != nil {
		return "", err
	}

	return utils.GenerateToken(s.cfg.SecretKey, strconv.FormatInt(userID, 10), userInfo.Email, sessionTTL)
}

func (s *authService) findOrCreateUser(ctx context.Context, info *transfer.GoogleUserInfo) (int64, error) {
	user, isExist, err := s.u.GetByEmail(ctx, info.Email)
	if err != nil {
		return 0, storeError("get user by email", 0, err)
	}

	if !isExist {
		userID, err := s.u.Create(ctx, &models.User{
			GoogleID:       info.ID,
			Email:          info.Email,
			Name:           info.Name,
			ProfilePicture: info.Picture,
		})
		if err != nil {
			return 0, storeError("create user", 0, err)
		}
		slog.Info("user created", "user_id", userID)
		return userID, nil
	}

	user.GoogleID = info.ID
	user.Name = info.Name
	user.ProfilePicture = info.Picture
	if err := s.u.Update(ctx, user); err != nil {
		return 0, storeError("update user", user.ID, err)
	}
	return user.ID, nil
}

func (s *authService) fetchUserInfo(ctx context.Context, client *http.Client) (*transfer.GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}

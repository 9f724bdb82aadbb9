package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type OAuthApp struct {
	ClientID     string
	ClientSecret string
}

type Config struct {
	Port                string
	AppURL              string
	FrontendURL         string
	PostgresURI         string
	SecretKey           string
	TokenEncryptionKey  string
	CookieName          string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	Facebook            OAuthApp
	Instagram           OAuthApp
	Twitter             OAuthApp
	OAuthTimeout        time.Duration
	AllowPastSchedule   bool
	StalePostGrace      time.Duration
	StalePostSweep      string
	R2                  R2
	MediaMaxBytes       int64
	MigrationsOnStartup bool
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		AppURL:             strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		FrontendURL:        strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		SecretKey:          getEnv("SECRET_KEY", ""),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "glowpost_session"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		Facebook: OAuthApp{
			ClientID:     getEnv("FACEBOOK_APP_ID", ""),
			ClientSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		},
		Instagram: OAuthApp{
			ClientID:     getEnv("INSTAGRAM_APP_ID", ""),
			ClientSecret: getEnv("INSTAGRAM_APP_SECRET", ""),
		},
		Twitter: OAuthApp{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		},
		OAuthTimeout:      getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		AllowPastSchedule: getEnvBool("ALLOW_PAST_SCHEDULE", false),
		StalePostGrace:    getEnvDuration("STALE_POST_GRACE", 24*time.Hour),
		StalePostSweep:    getEnv("STALE_POST_SWEEP", "@every 10m"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimRight(getEnv("R2_PUBLIC_URL", ""), "/"),
		},
		MediaMaxBytes:       getEnvInt64("MEDIA_MAX_BYTES", 50*1024*1024),
		MigrationsOnStartup: getEnvBool("MIGRATIONS_ON_STARTUP", true),
	}
}

// OAuthApp returns the configured client credentials for a social platform.
func (c *Config) OAuthApp(platform string) (OAuthApp, bool) {
	switch platform {
	case "facebook":
		return c.Facebook, true
	case "instagram":
		return c.Instagram, true
	case "twitter":
		return c.Twitter, true
	default:
		return OAuthApp{}, false
	}
}

// CallbackURL is the redirect URI registered with the provider for platform.
func (c *Config) CallbackURL(platform string) string {
	return c.AppURL + "/auth/" + platform + "/callback"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

package models

import (
	"encoding/json"
	"time"
)

const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTwitter   = "twitter"
)

const (
	AccountStatusConnected    = "connected"
	AccountStatusDisconnected = "disconnected"
)

// Platforms lists the social networks an account can be connected to.
var Platforms = []string{PlatformFacebook, PlatformInstagram, PlatformTwitter}

func IsPlatform(platform string) bool {
	for _, p := range Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

type SocialAccount struct {
	ID                int64      `db:"id" json:"id"`
	UserID            int64      `db:"user_id" json:"userId"`
	Platform          string     `db:"platform" json:"platform"`
	ProviderAccountID string     `db:"provider_account_id" json:"providerAccountId"`
	Username          string     `db:"username" json:"username"`
	DisplayName       string     `db:"display_name" json:"displayName"`
	AvatarURL         string     `db:"avatar_url" json:"avatarUrl"`
	AccessToken       string     `db:"access_token" json:"-"`
	RefreshToken      string     `db:"refresh_token" json:"-"`
	TokenExpiresAt    *time.Time `db:"token_expires_at" json:"-"`
	Followers         int64      `db:"followers" json:"followers"`
	Engagement        float64    `db:"engagement" json:"engagement"`
	Status            string     `db:"status" json:"status"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

func (sa *SocialAccount) IsConnected() bool {
	return sa.Status == AccountStatusConnected
}

// MarshalJSON adds the derived "connected" flag the client renders.
func (sa SocialAccount) MarshalJSON() ([]byte, error) {
	type account SocialAccount
	return json.Marshal(struct {
		account
		Connected bool `json:"connected"`
	}{
		account:   account(sa),
		Connected: sa.IsConnected(),
	})
}

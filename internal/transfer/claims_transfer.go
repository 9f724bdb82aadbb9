package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims identify the caller of the API.
type CustomClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// OAuthStateClaims travel through the provider as the OAuth "state" value so
// the callback can recover who started the flow without a server session.
type OAuthStateClaims struct {
	Platform string `json:"platform"`
	UserID   int64  `json:"userId"`
	// Verifier is the AES-GCM sealed PKCE code_verifier (twitter only).
	Verifier string `json:"cv,omitempty"`
	jwt.RegisteredClaims
}

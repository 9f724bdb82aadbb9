package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/glowpost/internal/transfer"
)

// TokenIssuer is stamped on, and required of, every token this service signs.
const TokenIssuer = "glowpost"

// StateAudience marks OAuth state tokens. Session tokens carry no audience and
// are rejected when they carry one.
const StateAudience = "glowpost-oauth-state"

func GenerateToken(secretKey, userID, email string, tokenDuration time.Duration) (string, error) {
	claims := transfer.CustomClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    TokenIssuer,
		},
	}
	return SignClaims(secretKey, claims)
}

func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	claims := &transfer.CustomClaims{}
	if err := ParseClaims(secretKey, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no subject")
	}
	if len(claims.Audience) > 0 {
		return nil, errors.New("token is not a session token")
	}
	return claims, nil
}

// SignState stamps the state audience and issuer on claims and signs them.
func SignState(secretKey string, claims *transfer.OAuthStateClaims) (string, error) {
	claims.Issuer = TokenIssuer
	claims.Audience = jwt.ClaimStrings{StateAudience}
	return SignClaims(secretKey, claims)
}

// ParseState accepts only tokens produced by SignState.
func ParseState(secretKey, tokenString string, claims *transfer.OAuthStateClaims) error {
	return ParseClaims(secretKey, tokenString, claims, jwt.WithAudience(StateAudience))
}

// SignClaims produces an HS256 token for any claim set.
func SignClaims(secretKey string, claims jwt.Claims) (string, error) {
	if secretKey == "" {
		return "", errors.New("signing key is not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

// ParseClaims verifies an HS256 token and decodes it into claims.
func ParseClaims(secretKey, tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	if secretKey == "" {
		return errors.New("signing key is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, append([]jwt.ParserOption{jwt.WithIssuer(TokenIssuer)}, opts...)...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

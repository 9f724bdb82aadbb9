package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/transfer"
	"github.com/maheshrc27/glowpost/pkg/utils"
)

const (
	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware accepts a bearer token or the session cookie.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return m.handler(false)
}

// BrowserAuthMiddleware also accepts ?token=, for routes the browser
// navigates to directly and cannot attach headers to.
func (m *AuthMiddleware) BrowserAuthMiddleware() fiber.Handler {
	return m.handler(true)
}

func (m *AuthMiddleware) handler(allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, fromCookie := m.extractToken(c, allowQuery)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(transfer.MessageResponse{Message: msgNoToken})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			if fromCookie {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1, // Delete cookie
				})
			}

			slog.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(transfer.MessageResponse{Message: msgInvalidToken})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx, allowQuery bool) (string, bool) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), false
		}
	}

	if m.cfg.CookieName != "" {
		if token := c.Cookies(m.cfg.CookieName); token != "" {
			return token, true
		}
	}

	if allowQuery {
		return c.Query("token"), false
	}
	return "", false
}

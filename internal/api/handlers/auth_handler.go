package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/service"
)

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	authURL, err := h.s.LoginURL()
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(authURL, fiber.StatusFound)
}

// LoginCallbackHandler sets the session cookie and hands the same token to the
// single-page app in the URL fragment.
func (h *AuthHandler) LoginCallbackHandler(c *fiber.Ctx) error {
	token, err := h.s.LoginCallback(c.UserContext(), c.Query("code"), c.Query("state"))
	if err != nil {
		return c.Redirect(h.cfg.FrontendURL+"/auth?error=login_failed", fiber.StatusFound)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   strings.HasPrefix(h.cfg.AppURL, "https://"),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
	})

	return c.Redirect(h.cfg.FrontendURL+"/auth#token="+token, fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return message(c, fiber.StatusOK, "Logged out")
}

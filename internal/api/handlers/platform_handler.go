package handlers

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/service"
)

type PlatformHandler struct {
	ps  service.PlatformService
	cs  service.ConnectorService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, cs service.ConnectorService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		cs:  cs,
		cfg: cfg,
	}
}

// AddSocialAccount sends the browser to the provider's consent page.
func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	authURL, err := h.cs.BuildAuthorizationURL(c.UserContext(), c.Params("platform"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(authURL, fiber.StatusFound)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platform := c.Params("platform")

	if providerErr := c.Query("error"); providerErr != "" {
		return c.Redirect(h.socialURL("error", "oauth_failed"), fiber.StatusFound)
	}

	_, err := h.cs.HandleCallback(c.UserContext(), platform, c.Query("code"), c.Query("state"))
	if err != nil {
		return c.Redirect(h.socialURL("error", "oauth_failed"), fiber.StatusFound)
	}

	return c.Redirect(h.socialURL("connected", platform), fiber.StatusFound)
}

func (h *PlatformHandler) socialURL(key, value string) string {
	return fmt.Sprintf("%s/social?%s=%s", h.cfg.FrontendURL, key, url.QueryEscape(value))
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.ps.List(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID, ok := paramID(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid account id")
	}

	err := h.ps.Disconnect(c.UserContext(), GetUserID(c), accountID, c.QueryBool("purge", false))
	if err != nil {
		return writeError(c, err)
	}

	return message(c, fiber.StatusOK, "Account disconnected")
}

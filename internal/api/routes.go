package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/maheshrc27/glowpost/internal/api/handlers"
	"github.com/maheshrc27/glowpost/internal/api/middleware"
	"github.com/maheshrc27/glowpost/internal/metrics"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Platform *handlers.PlatformHandler
	Post     *handlers.PostHandler
	Media    *handlers.MediaHandler
	Health   *handlers.HealthHandler
}

func SetupRoutes(app *fiber.App, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if h.Health != nil {
		app.Get("/healthz", h.Health.Health)
	}

	app.Get("/login", h.Auth.Login)
	app.Get("/login/callback", h.Auth.LoginCallbackHandler)
	app.Post("/logout", h.Auth.Logout)

	app.Get("/auth/:platform", authMiddleware.BrowserAuthMiddleware(), h.Platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", h.Platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/user/info", h.User.GetUserInfo)

	social := api.Group("/social")
	social.Get("/accounts", h.Platform.ListSocialAccounts)
	social.Delete("/accounts/:id", h.Platform.DeleteSocialAccount)

	social.Get("/posts", h.Post.ListPosts)
	social.Get("/posts/scheduled", h.Post.ListScheduledPosts)
	social.Get("/posts/:id", h.Post.GetPost)
	social.Get("/posts/:id/history", h.Post.PostHistory)
	social.Post("/posts", h.Post.CreatePost)
	social.Patch("/posts/:id", h.Post.UpdatePostStatus)
	social.Delete("/posts/:id", h.Post.RemovePost)

	social.Post("/media", h.Media.UploadMedia)
}

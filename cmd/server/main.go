package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/api"
	"github.com/maheshrc27/glowpost/internal/api/handlers"
	"github.com/maheshrc27/glowpost/internal/api/middleware"
	job "github.com/maheshrc27/glowpost/internal/jobs"
	"github.com/maheshrc27/glowpost/internal/metrics"
	"github.com/maheshrc27/glowpost/internal/repository"
	"github.com/maheshrc27/glowpost/internal/service"
	"github.com/maheshrc27/glowpost/pkg/utils"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY must be set")
	}
	if err := utils.CheckKey([]byte(cfg.TokenEncryptionKey)); err != nil {
		log.Fatalf("TOKEN_ENCRYPTION_KEY must be 16, 24 or 32 bytes: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if cfg.MigrationsOnStartup {
		if err := repository.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		BodyLimit:    int(cfg.MediaMaxBytes) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				msg = fe.Message
			}
			log.Printf("Error: %v", err)
			return c.Status(code).JSON(fiber.Map{"message": msg})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	historyRepo := repository.NewPostingHistoryRepository(db)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	connectorService := service.NewConnectorService(*cfg, socialAccountRepo, service.DefaultProviders())
	postService := service.NewPostService(*cfg, postRepo, socialAccountRepo, historyRepo)
	platformService := service.NewPlatformService(socialAccountRepo)

	r2Service := service.NewR2Service(cfg.R2)
	if !r2Service.Configured() {
		log.Println("Warning: R2 credentials missing, media uploads are disabled")
	}
	mediaService := service.NewMediaService(r2Service, r2Service.Configured(), cfg.R2.PublicURL, cfg.MediaMaxBytes)

	api.SetupRoutes(app, api.Handlers{
		Auth:     handlers.NewAuthHandler(*cfg, authService),
		User:     handlers.NewUserHandler(userService),
		Platform: handlers.NewPlatformHandler(platformService, connectorService, *cfg),
		Post:     handlers.NewPostHandler(postService),
		Media:    handlers.NewMediaHandler(mediaService, cfg.MediaMaxBytes),
		Health:   handlers.NewHealthHandler(db),
	}, middleware.NewAuthMiddleware(*cfg))

	// cron jobs
	c := cron.New()
	stalePostJob := job.NewStalePostJob(postRepo, postService, cfg.StalePostGrace)
	if err := stalePostJob.Schedule(c, cfg.StalePostSweep); err != nil {
		log.Fatalf("Failed to schedule stale post sweep: %v", err)
	}
	c.Start()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.AppURL)

	gracefulShutdown(app, c, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}

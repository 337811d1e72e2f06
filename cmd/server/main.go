package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/feedmerge/server/configs"
	"github.com/feedmerge/server/internal/api/handlers"
	"github.com/feedmerge/server/internal/api/middleware"
	job "github.com/feedmerge/server/internal/jobs"
	"github.com/feedmerge/server/internal/platform"
	"github.com/feedmerge/server/internal/queue"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/service"
	"github.com/feedmerge/server/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	cipher, err := utils.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize token cipher: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	postRepo := repository.NewPostRepository(db)
	targetRepo := repository.NewTargetRepository(db)
	oauthStateRepo := repository.NewOAuthStateRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)

	registry := platform.NewRegistry(*cfg)

	oauthStateService := service.NewOAuthStateService(oauthStateRepo)
	authService := service.NewAuthService(*cfg, userRepo, refreshTokenRepo, deviceTokenRepo)
	socialLoginService := service.NewSocialLoginService(*cfg, userRepo, connectionRepo, refreshTokenRepo, oauthStateService, registry, cipher)
	connectionService := service.NewConnectionService(connectionRepo, oauthStateService, registry, cipher)
	postService := service.NewPostService(db, postRepo, targetRepo, connectionRepo)
	mediaService := service.NewMediaService(*cfg)
	erasureService := service.NewErasureService(*cfg, db, userRepo, connectionRepo, postRepo, refreshTokenRepo, deviceTokenRepo)
	notifier := service.NewDeviceNotifier(deviceTokenRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(authService, socialLoginService)
	app.Post("/auth/register", auth.Register)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/refresh", auth.Refresh)
	app.Post("/auth/logout", auth.Logout)
	app.Post("/auth/oauth/start", auth.SocialLoginStart)
	app.Post("/auth/oauth/exchange", auth.SocialLoginExchange)

	webhook := handlers.NewWebhookHandler(erasureService)
	app.Post("/webhooks/facebook/data-deletion", webhook.FacebookDataDeletion)
	app.Get("/webhooks/facebook/data-deletion/status", webhook.DataDeletionStatus)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Post("/notification-token", auth.SaveDeviceToken)

	user := handlers.NewUserHandler(userRepo, erasureService)
	app.Get("/auth/me", authMiddleware.AuthMiddleware(), user.GetUserInfo)
	api.Get("/user/info", user.GetUserInfo)
	api.Delete("/user", user.DeleteAccount)

	connection := handlers.NewConnectionHandler(connectionService)
	api.Post("/connections/oauth/start", connection.StartOAuth)
	api.Post("/connections/oauth/exchange", connection.ExchangeOAuth)
	api.Get("/connections", connection.ListConnections)
	api.Delete("/connections/:id", connection.Disconnect)

	post := handlers.NewPostHandler(postService, mediaService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Post("/posts/upload-url", post.CreateUploadURL)

	// queue worker
	queueW := queue.NewQueue(postRepo, targetRepo, connectionRepo, registry, cipher, notifier)

	// cron jobs
	schedulerJob := job.NewSchedulerJob(postRepo, client)
	refreshTokenJob := job.NewTokenRefreshJob(connectionRepo, connectionService)
	cleanupJob := job.NewCleanupJob(oauthStateService, refreshTokenRepo)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", schedulerJob.ScanDuePosts)
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 01h00m00s", cleanupJob.Cleanup)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"laborpay-system/config"
	"laborpay-system/internal/database"
	"laborpay-system/internal/gateway/handlers"
	"laborpay-system/internal/gateway/middleware"
	"laborpay-system/internal/logger"
	"laborpay-system/internal/notify"
	"laborpay-system/internal/storage"
)

func main() {
	cfg := config.LoadConfig()
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.WithComponent("server")

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.MigrateLaborDB(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	minioService, err := storage.NewMinioService(&cfg.Minio)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create minio client")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := minioService.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure bucket")
	}
	cancel()

	notifier := notify.NewClient(cfg.Line.ChannelAccessToken)

	authHandler := handlers.NewAuthHandler(db, &cfg.Auth)
	companyHandler := handlers.NewCompanyHandler(db)
	contactHandler := handlers.NewContactHandler(db, redisClient)
	reportHandler := handlers.NewReportHandler(db, redisClient, notifier, cfg.Server.BaseURL)
	signingHandler := handlers.NewSigningHandler(db, redisClient)
	lineHandler := handlers.NewLineHandler(db, notifier, cfg.Server.BaseURL)
	uploadHandler := handlers.NewUploadHandler(minioService)

	r := gin.Default()
	r.Use(middleware.CORS())

	// --- Public API Group ---
	// The sign token is the sole credential on the payee routes; keep a
	// per-IP cap on the whole unauthenticated surface.
	public := r.Group("/api/v1")
	public.Use(middleware.RateLimit("30-M"))
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}

		sign := public.Group("/sign")
		{
			sign.GET("/:token", signingHandler.Resolve)
			sign.POST("/:token", signingHandler.Sign)
		}

		public.POST("/upload", uploadHandler.Upload)
		public.POST("/line/webhook", lineHandler.Webhook)
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
	{
		companies := protected.Group("/companies")
		{
			companies.GET("", companyHandler.List)
			companies.POST("", companyHandler.Create)
		}

		contacts := protected.Group("/contacts")
		{
			contacts.GET("", contactHandler.List)
			contacts.GET("/lookup", contactHandler.Lookup)
			contacts.POST("", contactHandler.Create)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("", reportHandler.List)
			reports.GET("/preview", reportHandler.Preview)
			reports.POST("", reportHandler.Create)
			reports.GET("/:id", reportHandler.Get)
			reports.POST("/:id/cancel", reportHandler.Cancel)
			reports.DELETE("/:id", reportHandler.Delete)
			reports.POST("/batch-delete", reportHandler.BatchDelete)
			reports.GET("/:id/export", reportHandler.ExportOne)
			reports.POST("/export", reportHandler.ExportBatch)
		}

		line := protected.Group("/line")
		{
			line.GET("/groups", lineHandler.Groups)
			line.POST("/send", lineHandler.Send)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("starting server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

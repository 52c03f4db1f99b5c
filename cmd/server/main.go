package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/campuslink/backend/internal/assist"
	"github.com/campuslink/backend/internal/cache"
	"github.com/campuslink/backend/internal/config"
	"github.com/campuslink/backend/internal/database"
	"github.com/campuslink/backend/internal/handlers"
	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/metrics"
	"github.com/campuslink/backend/internal/middleware"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/realtime"
	"github.com/campuslink/backend/internal/store"
	"github.com/campuslink/backend/internal/telemetry"
	"github.com/campuslink/backend/internal/util"
)

func main() {
	// Missing .env is fine, production passes real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.Log

	log.Info("campuslink server starting", zap.String("environment", cfg.Environment))

	metrics.Initialize()

	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "campuslink-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Enabled:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
		SamplingRate: 1.0,
	})
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}

	if err := database.Initialize(); err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	defer database.Close()

	st := store.New(database.DB)

	// Redis is optional. Without it the leaderboard reads fall back to the
	// database and everything else keeps working.
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, leaderboard served from database", zap.Error(err))
		redisClient = nil
	}

	pointsService := points.New(st, redisClient)
	assistClient := assist.NewClient(cfg.AssistBaseURL, cfg.AssistAPIKey, cfg.AssistModel)
	if !assistClient.Enabled() {
		log.Warn("assist API key not set, moderation allows everything and assist endpoints return 503")
	}

	jwtSecret := []byte(cfg.JWTSecret)

	hub := realtime.NewHub()
	go hub.Run()
	wsHandler := realtime.NewHandler(hub, st, pointsService, jwtSecret)

	h := handlers.NewHandlers(st, assistClient, pointsService)
	h.SetHub(hub)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("campuslink-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := database.Health(); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "campuslink-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		feedGroup := api.Group("/feed")
		{
			feedGroup.Use(middleware.AuthOptional(jwtSecret))
			feedGroup.GET("", h.GetFeed)
		}

		posts := api.Group("/posts")
		{
			posts.GET("/:id", middleware.AuthOptional(jwtSecret), h.GetPost)
			posts.GET("/:id/replies", middleware.AuthOptional(jwtSecret), h.GetPostReplies)
			posts.GET("/:id/comments", h.GetComments)
			posts.GET("/:id/poll", h.GetPoll)
			posts.GET("/:id/calendar.ics", h.GetEventCalendar)

			authed := posts.Group("")
			authed.Use(middleware.AuthRequired(jwtSecret))
			{
				authed.POST("", h.CreatePost)
				authed.DELETE("/:id", h.DeletePost)
				authed.POST("/:id/comments", h.CreateComment)
				authed.POST("/:id/like", h.ToggleLike)
				authed.POST("/:id/repost", h.ToggleRepost)
				authed.POST("/:id/bookmark", h.ToggleBookmark)
				authed.POST("/:id/react", h.ToggleReaction)
				authed.POST("/:id/vote", h.CastVote)
				authed.POST("/:id/register", h.Register)
				authed.DELETE("/:id/register", h.CancelRegistration)
				authed.POST("/:id/report", h.CreateReport)
			}
		}

		users := api.Group("/users")
		{
			users.GET("/:id", h.GetProfile)

			authed := users.Group("")
			authed.Use(middleware.AuthRequired(jwtSecret))
			{
				authed.GET("/me", h.GetMe)
				authed.PUT("/me", h.UpdateMe)
				authed.POST("/:id/follow", h.Follow)
				authed.DELETE("/:id/follow", h.Unfollow)
			}
		}

		api.GET("/leaderboard", h.GetLeaderboard)

		assistGroup := api.Group("/assist")
		{
			assistGroup.Use(middleware.AuthRequired(jwtSecret))
			assistGroup.POST("/translate", h.Translate)
			assistGroup.POST("/summarize", h.Summarize)
			assistGroup.POST("/suggest", h.Suggest)
		}

		ws := api.Group("/ws")
		{
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/connect", wsHandler.HandleWebSocket)
		}
	}

	// Token issuance for development and tests. Real deployments sit behind
	// the campus SSO gateway, which mints the same JWTs.
	if !cfg.IsProduction() {
		api.POST("/auth/dev-token", func(c *gin.Context) {
			var req struct {
				UserID string `json:"user_id" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				util.RespondBadRequest(c, err.Error())
				return
			}
			token, err := middleware.GenerateToken(jwtSecret, req.UserID, 24*time.Hour)
			if err != nil {
				util.RespondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(ctx); err != nil {
		log.Warn("websocket shutdown incomplete", zap.Error(err))
	}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

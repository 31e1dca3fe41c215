// Package main runs the shared-listening HTTP server with WebSocket fan-out
// and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/loudtogether/backend/config"
	"github.com/loudtogether/backend/internal/auth"
	"github.com/loudtogether/backend/internal/media"
	"github.com/loudtogether/backend/internal/middleware"
	"github.com/loudtogether/backend/internal/realtime"
	"github.com/loudtogether/backend/internal/sessions"
	"github.com/loudtogether/backend/pkg/database"
	"github.com/loudtogether/backend/pkg/queue"
	"github.com/loudtogether/backend/pkg/redis"
	"github.com/loudtogether/backend/pkg/response"
	"github.com/loudtogether/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		AudioBucket:          cfg.AWS.AudioBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	tokens := auth.NewTokenService(cfg.Token.Secret, cfg.Token.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Sessions (store -> cache -> state machine)
	store := sessions.NewStore(pool)
	cache := sessions.NewCache(rdb.Client, time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)
	sessionSvc := sessions.NewService(store, cache, hub, logger)

	// Media (metadata lookup + audio asset resolution)
	ytClient := media.NewYouTubeClient(cfg.YouTube.APIKey, cfg.YouTube.BaseURL, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	resolver := media.NewResolver(ytClient, s3Client, jobQueue, logger)
	mediaHandler := media.NewHandler(resolver, logger)

	sessionHandler := sessions.NewHandler(sessionSvc, ytClient, tokens, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api/sessions")
	{
		// audio-info must come before the /:id route
		api.GET("/audio-info", mediaHandler.AudioInfo)

		api.POST("", sessionHandler.Create)
		api.GET("/:id", sessionHandler.Get)
		api.GET("/session/:name", sessionHandler.GetByName)
		api.POST("/:id/join", sessionHandler.Join)
		api.POST("/:id/leave", sessionHandler.Leave)
		api.POST("/:id/remove-participant", sessionHandler.RemoveParticipant)
		api.GET("/:id/sync", sessionHandler.SyncStatus)
		api.POST("/:id/sync", middleware.ParticipantToken(tokens), sessionHandler.Sync)
	}

	// WebSocket channel; subscribers pull current state with "request-sync".
	router.GET("/ws", realtime.ServeWs(hub, logger, func(ctx context.Context, sessionID uuid.UUID) (interface{}, error) {
		playback, err := sessionSvc.SyncStatus(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return playback, nil
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

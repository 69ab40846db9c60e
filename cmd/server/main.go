package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/moodgram/internal/api"
	"github.com/mroshb/moodgram/internal/config"
	"github.com/mroshb/moodgram/internal/handlers"
	"github.com/mroshb/moodgram/internal/middleware"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/internal/services"
	"github.com/mroshb/moodgram/internal/storage"
	"github.com/mroshb/moodgram/pkg/logger"
	"github.com/mroshb/moodgram/telegram"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	logger.Info("Starting Moodgram...", "env", cfg.AppEnv, "backend", cfg.StoreBackend)

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	backend, err := storage.Open(startCtx, cfg)
	cancelStart()
	if err != nil {
		logger.Fatal("Failed to open store", err)
	}
	defer backend.Close()

	engine := relationship.NewEngine(backend.Store)
	userSvc := services.NewUserService(backend.Users)
	socialSvc := services.NewSocialService(engine, backend.Users, backend.Graph, cfg.ActionMaxRetries)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, cfg.GetRateLimitWindow())
	defer limiter.Stop()

	router := api.NewRouter(api.RouterConfig{
		Handler:        api.NewHandler(userSvc, socialSvc, cfg.JWTSecret, cfg.GetTokenTTL()),
		Limiter:        limiter,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	// Telegram bot is optional
	var bot *telegram.Bot
	if cfg.BotToken != "" {
		bot, err = telegram.InitBot(cfg, handlers.NewHandlerManager(userSvc, socialSvc))
		if err != nil {
			logger.Fatal("Failed to initialize bot", err)
		}
		logger.Info("Bot started successfully")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	if bot != nil {
		bot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

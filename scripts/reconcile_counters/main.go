package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mroshb/moodgram/internal/config"
	"github.com/mroshb/moodgram/internal/services"
	"github.com/mroshb/moodgram/internal/storage"
	"github.com/mroshb/moodgram/pkg/logger"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", err)
	}
	defer backend.Close()

	if backend.Recounter == nil {
		logger.Fatal("Counter reconciliation unavailable", fmt.Errorf("backend %q cannot recount counters", backend.Name))
	}

	result, err := services.NewReconciler(backend.Recounter).Run(ctx)
	if err != nil {
		logger.Fatal("Counter reconciliation failed", err)
	}

	for _, d := range result.Drifts {
		fmt.Printf("%s stored=%+v actual=%+v\n", d.UserID, d.Stored, d.Actual)
	}
	fmt.Printf("Checked %d users, repaired %d\n", result.Checked, len(result.Drifts))
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/moodgram/internal/config"
	"github.com/mroshb/moodgram/internal/report"
	"github.com/mroshb/moodgram/internal/storage"
	"github.com/mroshb/moodgram/pkg/logger"
)

func main() {
	out := flag.String("out", "moodgram_graph.xlsx", "output workbook path")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", err)
	}
	defer backend.Close()

	f, err := os.Create(*out)
	if err != nil {
		logger.Fatal("Failed to create output file", err)
	}

	if err := report.Write(ctx, backend.Export, f); err != nil {
		f.Close()
		logger.Fatal("Failed to export graph", err)
	}
	if err := f.Close(); err != nil {
		logger.Fatal("Failed to close output file", err)
	}

	logger.Info("Graph exported", "path", *out, "backend", backend.Name)
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"order-board-service/internal/adapters/repositories"
	"order-board-service/internal/config"
	"order-board-service/internal/platform/db"
	"order-board-service/internal/platform/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	schemaOnly := flag.Bool("schema-only", false, "create the schema without loading seed data")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	if err := logger.Init(config.Get("ENVIRONMENT", "development")); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	seedPath := ""
	if !*schemaOnly {
		seedPath = config.Get("SEED_PATH", "data/seeds/catalog.json")
	}
	if err := initAndSeed(ctx, conn, seedPath); err != nil {
		logger.Fatal("dbtool failed", zap.Error(err))
	}
}

// initAndSeed creates the schema and, when seedPath is set, loads it.
func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Info("schema ready")

	if seedPath == "" {
		return nil
	}

	logger.Info("seeding database", zap.String("path", seedPath))
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info("seeding complete")

	return nil
}

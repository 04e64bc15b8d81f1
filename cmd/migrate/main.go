package main

import (
	"context"
	"log"
	"time"

	"featurelab/adapters/sqlstore"
	"featurelab/internal/config"
	"featurelab/internal/migration"

	"github.com/joho/godotenv"
)

// migrate creates the run history schema in the database selected by DATABASE_URL
// or SQLITE_PATH
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" && cfg.Database.SQLitePath == ":memory:" {
		log.Fatal("Usage: set DATABASE_URL or SQLITE_PATH to a persistent database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg.Database.Driver(), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Run history schema at version %s on %s", runner.Version(), cfg.Database.Driver())
}

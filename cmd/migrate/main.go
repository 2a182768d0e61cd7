package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ebox-messaging/internal/config"
	"ebox-messaging/pkg/database"
)

const usage = `
e-Box Messaging - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create or update the schema
  seed-dev    Seed with development/test data
  status      Show database connection status

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed-dev
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		fmt.Println("schema up to date")
	case "seed-dev":
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		if err := database.SeedDev(context.Background(), db); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("development data seeded")
	case "status":
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("status failed: %v", err)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("database unreachable: %v", err)
		}
		fmt.Println("database reachable")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

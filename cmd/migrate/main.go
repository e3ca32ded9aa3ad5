package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/database"
	"github.com/straye-as/sales-dashboard-api/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Get command and arguments
	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate [up|down|reset|status|version|create <name>]")
	}

	command := args[0]
	arguments := args[1:]

	// New migration files are written to the source tree, not the embedded set
	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(nil, "./migrations", arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Printf("Migration created: %s\n", arguments[0])
		return nil
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, dialect, err := open(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Run(db, dialect, command); err != nil {
		return err
	}

	switch command {
	case "up":
		fmt.Println("Migrations applied successfully")
	case "down":
		fmt.Println("Migration rolled back successfully")
	case "reset":
		fmt.Println("All migrations rolled back")
	}
	return nil
}

// open connects with lib/pq for PostgreSQL and through gorm's driver for SQLite
func open(cfg *config.DatabaseConfig) (*sql.DB, string, error) {
	if cfg.Driver == "sqlite" {
		gormDB, err := database.NewDatabase(cfg)
		if err != nil {
			return nil, "", err
		}
		db, err := gormDB.DB()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get sqlite connection: %w", err)
		}
		return db, "sqlite3", nil
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, "postgres", nil
}

// Package database opens the gorm connection that stores deal snapshots and quotas.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// HealthStatus is the result of a database health check
type HealthStatus struct {
	Status    string `json:"status"`
	Driver    string `json:"driver"`
	LatencyMs int64  `json:"latency_ms"`
	Open      int    `json:"open_connections"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
	Error     string `json:"error,omitempty"`
}

// NewDatabase creates a new database connection for the configured driver
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.ConnectionString()), nil
	case "sqlite":
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// AutoMigrate creates the snapshot and quota tables. Postgres deployments use
// the goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.DealSnapshot{},
		&domain.StoredDealRecord{},
		&domain.SalesQuota{},
	)
}

// HealthCheck pings the database and reports pool statistics
func HealthCheck(ctx context.Context, db *gorm.DB) *HealthStatus {
	status := &HealthStatus{Driver: db.Dialector.Name()}

	sqlDB, err := db.DB()
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}

	start := time.Now()
	err = sqlDB.PingContext(ctx)
	status.LatencyMs = time.Since(start).Milliseconds()

	stats := sqlDB.Stats()
	status.Open = stats.OpenConnections
	status.InUse = stats.InUse
	status.Idle = stats.Idle

	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}
	status.Status = "healthy"
	return status
}

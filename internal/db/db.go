package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/gersa/internal/config"
	"github.com/diewo77/gersa/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const retryDelay = 2 * time.Second

// Open connects with a bounded retry loop and checks connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	dsn := NormalizeDSN(cfg.ConnString())
	if dsn == "" {
		return nil, errors.New("empty database DSN, check DB_DSN or DB_HOST")
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}
	level := gormlogger.Silent
	if cfg.Debug {
		level = gormlogger.Info
	}
	gcfg := &gorm.Config{Logger: log.Gorm(level), TranslateError: true}

	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < retries; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn("database not reachable, retrying", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after %d attempts: %w", retries, err)
	}
	if err := conn.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	log.Info("database connected", "driver", cfg.Driver, "target", MaskDSN(dsn))
	return conn, nil
}

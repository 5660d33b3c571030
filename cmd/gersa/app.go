package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/diewo77/gersa/internal/config"
	"github.com/diewo77/gersa/internal/db"
	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/metrics"
	"github.com/diewo77/gersa/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// App holds what every command needs once the environment is loaded.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *gorm.DB
	svc      *services.Services
	registry *prometheus.Registry
	out      io.Writer
}

// Init loads configuration, connects to the database and applies the
// startup migrations and seed when enabled.
func (a *App) Init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.db = cfg, log, conn
	a.registry = prometheus.NewRegistry()
	a.svc = services.New(conn, log, metrics.New(a.registry))

	if cfg.App.Migrations {
		if err := a.migrate(); err != nil {
			return err
		}
	}
	if cfg.App.Seed {
		if err := db.Seed(conn.WithContext(ctx)); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// migrate runs the SQL migrations on postgres and AutoMigrate elsewhere.
func (a *App) migrate() error {
	if a.cfg.Database.Driver == "postgres" {
		if err := db.RunSQLMigrations(a.cfg.Database.MigrationsPath, a.cfg.Database.ConnString()); err != nil {
			return err
		}
	} else if err := db.AutoMigrate(a.db); err != nil {
		return err
	}
	a.log.Info("migrations applied", "driver", a.cfg.Database.Driver)
	return nil
}

func (a *App) Close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/gersa/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"personnes", "numeros_parts", "parcelles", "subdivisions", "valeurs_points"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the versioned SQL files in dir to a postgres DSN.
func RunSQLMigrations(dir, dsn string) error {
	m, err := migrate.New("file://"+dir, ToURLDSN(NormalizeDSN(dsn)))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "DB_DSN", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_NAME", "DB_SSLMODE", "DB_PASSWORD", "APP_LANG")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "fr", cfg.App.Lang)
	assert.Equal(t, 10, cfg.Database.ConnectRetries)
	assert.Equal(t, "host=localhost port=5432 user=postgres dbname=gersa sslmode=disable", cfg.Database.ConnString())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:gersa.db")
	t.Setenv("APP_MIGRATIONS", "true")
	t.Setenv("LOG_MODE", "production")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.Migrations)
	assert.Equal(t, "production", cfg.Log.Mode)
	assert.Equal(t, "file:gersa.db", cfg.Database.ConnString())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		db      DatabaseConfig
		wantErr bool
	}{
		{"postgres parts", DatabaseConfig{Driver: "postgres", Host: "db"}, false},
		{"postgres dsn", DatabaseConfig{Driver: "postgres", DSN: "postgres://u@h/db"}, false},
		{"sqlite without dsn", DatabaseConfig{Driver: "sqlite"}, true},
		{"unknown driver", DatabaseConfig{Driver: "mysql", DSN: "x"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Config{Database: c.db}
			err := cfg.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	p := DatabaseConfig{Driver: "postgres", Host: "h", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "require"}
	assert.Equal(t, "host=h port=5433 user=u dbname=n sslmode=require password=p", p.ConnString())
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

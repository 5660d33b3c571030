package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the whole runtime configuration, read from the environment.
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type AppConfig struct {
	Env        string `env:"ENV" envDefault:"development"`
	Migrations bool   `env:"MIGRATIONS" envDefault:"false"`
	Seed       bool   `env:"SEED" envDefault:"false"`
	Lang       string `env:"LANG" envDefault:"fr"`
}

// DatabaseConfig accepts either a full DSN or its parts.
type DatabaseConfig struct {
	Driver         string `env:"DRIVER" envDefault:"postgres"`
	DSN            string `env:"DSN"`
	Host           string `env:"HOST" envDefault:"localhost"`
	Port           int    `env:"PORT" envDefault:"5432"`
	User           string `env:"USER" envDefault:"postgres"`
	Password       string `env:"PASSWORD"`
	Name           string `env:"NAME" envDefault:"gersa"`
	SSLMode        string `env:"SSLMODE" envDefault:"disable"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"internal/db/migrations"`
	MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnectRetries int    `env:"CONNECT_RETRIES" envDefault:"10"`
	Debug          bool   `env:"DEBUG" envDefault:"false"`
}

type LogConfig struct {
	Mode  string `env:"MODE" envDefault:"development"`
	Level string `env:"LEVEL" envDefault:"info"`
}

// Load reads .env (if present) then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("DB_DSN is required with the sqlite driver")
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" && c.Database.Host == "" {
		return errors.New("DB_DSN or DB_HOST must be set")
	}
	return nil
}

// ConnString returns the raw DSN when given, else a key=value list built from parts.
func (d DatabaseConfig) ConnString() string {
	if strings.TrimSpace(d.DSN) != "" || d.Driver == "sqlite" {
		return d.DSN
	}
	parts := []string{
		"host=" + d.Host,
		fmt.Sprintf("port=%d", d.Port),
		"user=" + d.User,
		"dbname=" + d.Name,
		"sslmode=" + d.SSLMode,
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	return strings.Join(parts, " ")
}

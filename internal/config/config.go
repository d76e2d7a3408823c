// Package config loads application configuration from environment variables.
// An optional .env file in the working directory is read first; real
// environment variables always win over it.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Nested groups share the
// prefix given in their envconfig tag and split field names on word
// boundaries, so DB.MaxConns is read from DB_MAX_CONNS.
type Config struct {
	Env         string   `envconfig:"APP_ENV" default:"development"`
	Port        int      `envconfig:"PORT" default:"7000"`
	LogLevel    string   `envconfig:"APP_LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	DB        DBConfig        `envconfig:"DB"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Cache     CacheConfig     `envconfig:"CACHE"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	AMQP      AMQPConfig      `envconfig:"AMQP"`
	Game      GameConfig      `envconfig:"GAME"`
	Session   SessionConfig   `envconfig:"SESSION"`
}

// DBConfig selects and configures the ledger store.  Driver is one of
// mysql, postgres, sqlite or memory.  A zero Port means the driver's
// standard port.
type DBConfig struct {
	Driver   string `split_words:"true" default:"sqlite"`
	Host     string `split_words:"true" default:"localhost"`
	Port     int    `split_words:"true"`
	User     string `split_words:"true" default:"sgp"`
	Password string `split_words:"true"`
	Name     string `split_words:"true" default:"sgp"`
	SSLMode  string `split_words:"true" default:"disable"`
	Path     string `split_words:"true" default:"data/sgp.db"`
	MaxConns int    `split_words:"true" default:"25"`
	MinConns int    `split_words:"true" default:"2"`
}

// Default server ports per driver.
const (
	DefaultMySQLPort    = 3306
	DefaultPostgresPort = 5432
)

// PostgresDSN returns a pgx connection URL.
func (c DBConfig) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// AMQPConfig configures the ledger event feed.  An empty URL disables both
// the publisher and the consumer.
type AMQPConfig struct {
	URL             string `split_words:"true"`
	Queue           string `split_words:"true" default:"ledger.recorded"`
	ConsumerEnabled bool   `split_words:"true" default:"false"`
	LogPath         string `split_words:"true" default:"logs/ledger.log"`
}

// GameConfig holds rule parameters that are not part of the catalog.
type GameConfig struct {
	InitialBalance int64 `split_words:"true" default:"25000"`
}

// SessionConfig drives the retention job.  A zero Retention disables it.
type SessionConfig struct {
	Retention      time.Duration `split_words:"true" default:"0s"`
	ReaperSchedule string        `split_words:"true" default:"@hourly"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AMQP.URL == "" {
		cfg.AMQP.URL = os.Getenv("RABBITMQ_URL")
	}
	cfg.RateLimit.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case "mysql", "postgres", "sqlite", "memory":
		c.DB.Driver = strings.ToLower(c.DB.Driver)
	default:
		return fmt.Errorf("DB_DRIVER must be mysql, postgres, sqlite or memory, got %q", c.DB.Driver)
	}
	if c.DB.Port == 0 {
		switch c.DB.Driver {
		case "mysql":
			c.DB.Port = DefaultMySQLPort
		case "postgres":
			c.DB.Port = DefaultPostgresPort
		}
	}
	if c.DB.Port < 0 || c.DB.Port > 65535 {
		return fmt.Errorf("DB_PORT out of range: %d", c.DB.Port)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.DB.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.Game.InitialBalance < 0 {
		return fmt.Errorf("GAME_INITIAL_BALANCE must not be negative")
	}
	if c.Session.Retention < 0 {
		return fmt.Errorf("SESSION_RETENTION must not be negative")
	}
	return nil
}

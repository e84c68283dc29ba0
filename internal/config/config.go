// Package config loads service settings from the environment and an optional
// config file through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Supported values of DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
	DriverMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Auth     AuthConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
}

type AppConfig struct {
	Port            string
	Env             string
	CORSOrigin      string
	BodyLimit       int
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// CascadeOnDelete removes a user's tasks together with the account.
	CascadeOnDelete bool
}

type DatabaseConfig struct {
	Driver        string
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MongoURI      string
	MongoDatabase string
}

// RabbitMQConfig enables event publishing when URL is non-empty.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("BODY_LIMIT", 1<<20)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ACCOUNT_DELETE_CASCADE", false)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "focustache.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "focustache")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "focustache_events")
}

// Load reads the configuration from v. Environment variables always apply;
// CONFIG_FILE, when set, names an additional file in any format viper reads.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		App: AppConfig{
			Port:            v.GetString("APP_PORT"),
			Env:             v.GetString("APP_ENV"),
			CORSOrigin:      v.GetString("CORS_ORIGIN"),
			BodyLimit:       v.GetInt("BODY_LIMIT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			TokenTTL:        v.GetDuration("TOKEN_TTL"),
			BcryptCost:      clampCost(v.GetInt("BCRYPT_COST")),
			CascadeOnDelete: v.GetBool("ACCOUNT_DELETE_CASCADE"),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:           v.GetString("DATABASE_DSN"),
			MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
			MongoURI:      v.GetString("MONGODB_URI"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	case DriverMongo:
		if c.Database.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for the mongodb driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required for the postgres driver"))
	}
	if c.RabbitMQ.URL != "" && c.RabbitMQ.Queue == "" {
		errs = append(errs, errors.New("RABBITMQ_QUEUE must not be empty"))
	}
	return errors.Join(errs...)
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

// Package config loads runtime settings from an optional YAML file and
// LEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LEDGER_SERVER_PORT.
const EnvPrefix = "LEDGER"

// MinJWTSecretLength is the shortest secret accepted for HMAC-SHA256 signing.
const MinJWTSecretLength = 32

const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	HashingPlain  = "plain"
	HashingBcrypt = "bcrypt"
)

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"database_url"`
}

type SessionConfig struct {
	TransientTTL time.Duration `mapstructure:"transient_ttl"`
	RememberTTL  time.Duration `mapstructure:"remember_ttl"`
}

type AuthConfig struct {
	PasswordHashing string `mapstructure:"password_hashing"`
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
	JWTSecret       string `mapstructure:"jwt_secret"`
}

type TransactionsConfig struct {
	SharedScope bool `mapstructure:"shared_scope"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Session      SessionConfig      `mapstructure:"session"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Transactions TransactionsConfig `mapstructure:"transactions"`
	Log          LogConfig          `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cookie_secure", true)
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "expense-tracker.db")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("session.transient_ttl", "0s")
	v.SetDefault("session.remember_ttl", "720h")
	v.SetDefault("auth.password_hashing", HashingPlain)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("transactions.shared_scope", false)
	v.SetDefault("log.level", "info")
}

// Load reads configuration from path. An empty path looks for an optional
// config.yaml in the working directory. Environment variables override file
// values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Auth.PasswordHashing = strings.ToLower(strings.TrimSpace(c.Auth.PasswordHashing))
	return &c, nil
}

// Validate checks settings shared by every binary.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("storage.database_url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q (want sqlite, memory or postgres)", c.Storage.Driver)
	}

	switch c.Auth.PasswordHashing {
	case HashingPlain:
	case HashingBcrypt:
		if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
			return fmt.Errorf("auth.bcrypt_cost must be between 4 and 14, got %d", c.Auth.BcryptCost)
		}
	default:
		return fmt.Errorf("unknown auth.password_hashing %q (want plain or bcrypt)", c.Auth.PasswordHashing)
	}

	if c.Session.TransientTTL < 0 {
		return errors.New("session.transient_ttl must not be negative")
	}
	if c.Session.RememberTTL <= 0 {
		return errors.New("session.remember_ttl must be positive")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// ValidateServer runs Validate plus the checks the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters for HMAC-SHA256 security", MinJWTSecretLength)
	}
	return nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// HTTPAddress returns the address the HTTP server binds to.
func (c *Config) HTTPAddress() string {
	return ":" + c.Server.Port
}

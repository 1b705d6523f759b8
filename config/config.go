// Package config loads service settings from an optional config.yaml, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Numbering NumberingConfig `mapstructure:"numbering"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Render    RenderConfig    `mapstructure:"render"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"oneof=postgres memory"`
	URL          string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// AuthConfig configures bearer token verification. An empty JWTSecret runs
// the API unauthenticated as DevOwner.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	DevOwner  string `mapstructure:"dev_owner" validate:"required"`
}

type NumberingConfig struct {
	Scope      string `mapstructure:"scope" validate:"oneof=owner global"`
	MaxRetries uint64 `mapstructure:"max_retries" validate:"lte=20"`
}

// StorageConfig enables logo uploads when Bucket is set.
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region" validate:"required_with=Bucket"`
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

// RenderConfig tunes logo fetching. LogoOrigins lists the URL prefixes logos
// may be downloaded from, in addition to the storage bucket.
type RenderConfig struct {
	LogoTimeout time.Duration `mapstructure:"logo_timeout" validate:"gt=0"`
	LogoOrigins []string      `mapstructure:"logo_origins" validate:"dive,url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.dev_owner", "dev-owner")
	v.SetDefault("numbering.scope", "owner")
	v.SetDefault("numbering.max_retries", 3)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.prefix", "logos")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("render.logo_timeout", 5*time.Second)
	v.SetDefault("render.logo_origins", []string{})
}

// Load reads the configuration. Every key can be overridden by its upper
// case environment variable with dots replaced by underscores, for example
// DATABASE_URL; PORT is accepted for server.port.
func Load() (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		slog.Info("using config file", "path", v.ConfigFileUsed())
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Configuration) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// SlogLevel maps log.level onto a slog level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

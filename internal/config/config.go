// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/camillebr/photosite/internal/content"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Auth     AuthConfig    `mapstructure:"auth"`
	Storage  StorageConfig `mapstructure:"storage"`
	DB       DBConfig      `mapstructure:"db"`
	Ingest   IngestConfig  `mapstructure:"ingest"`
	PubSub   PubSubConfig  `mapstructure:"pubsub"`
	Login    LoginConfig   `mapstructure:"login"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Sections []string      `mapstructure:"sections"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines admin API authentication. When disabled, the admin
// routes accept requests without a key and login succeeds unconditionally.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// StorageConfig selects and addresses the blob store.
type StorageConfig struct {
	// Provider is "gcs" or "memory".
	Provider      string `mapstructure:"provider"`
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// DBConfig selects and addresses the metadata store.
type DBConfig struct {
	// Provider is "postgres" or "memory".
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// IngestConfig governs the image pipeline.
type IngestConfig struct {
	Quality        float64 `mapstructure:"quality"`
	ForceTranscode bool    `mapstructure:"force_transcode"`
	MaxUploadMB    int     `mapstructure:"max_upload_mb"`
}

// PubSubConfig holds metadata for content-change notifications. Leaving the
// project ID empty disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoginConfig bounds login attempts per client.
type LoginConfig struct {
	AttemptsPerMinute float64 `mapstructure:"attempts_per_minute"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PHOTOSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.bucket", "assets")
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("ingest.quality", 0.8)
	v.SetDefault("ingest.force_transcode", false)
	v.SetDefault("ingest.max_upload_mb", 10)
	v.SetDefault("login.attempts_per_minute", 5)
	v.SetDefault("login.burst", 5)
	v.SetDefault("logging.development", true)
	v.SetDefault("sections", content.DefaultSections())
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket must be set when storage.provider is gcs")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	if c.Ingest.Quality <= 0 || c.Ingest.Quality > 1 {
		return fmt.Errorf("ingest.quality must be in (0,1]")
	}
	if c.Ingest.MaxUploadMB <= 0 {
		return fmt.Errorf("ingest.max_upload_mb must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("sections must not be empty")
	}
	return nil
}

// RequestTimeout converts the server timeout knob into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// MaxUploadBytes converts the upload cap into bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.Ingest.MaxUploadMB) << 20
}

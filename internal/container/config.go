// Package container provides dependency injection and lifecycle management
// for the purchase report service.
package container

import (
	"fmt"
	"time"

	"github.com/zosarillana/prs-be/internal/infrastructure/cache"
	httpapi "github.com/zosarillana/prs-be/internal/interfaces/http"
)

// Cache drivers
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database  DatabaseConfig
	Server    httpapi.ServerConfig
	Auth      AuthConfig
	Cache     CacheConfig
	Lark      LarkConfig
	Export    ExportConfig
	WebSocket WebSocketConfig

	// DBStatsInterval is how often pool statistics are sampled for /metrics
	DBStatsInterval time.Duration
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// CacheConfig selects the summary cache backend.
type CacheConfig struct {
	Driver        string
	TTL           time.Duration
	SweepInterval time.Duration
	Redis         cache.RedisConfig
}

// LarkConfig holds Lark messaging settings. Disabled skips DM delivery.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
	BaseURL   string
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	Dir string
}

// WebSocketConfig holds live update settings.
type WebSocketConfig struct {
	Enabled        bool
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/prs.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: httpapi.DefaultServerConfig(),
		Auth: AuthConfig{
			Issuer:   "prs",
			TokenTTL: 24 * time.Hour,
		},
		Cache: CacheConfig{
			Driver:        CacheMemory,
			TTL:           60 * time.Second,
			SweepInterval: time.Minute,
		},
		Export:          ExportConfig{Dir: "exports"},
		WebSocket:       WebSocketConfig{Enabled: true},
		DBStatsInterval: 15 * time.Second,
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Cache.Driver {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("export.dir is required")
	}
	return nil
}

package config

import (
	"github.com/zosarillana/prs-be/internal/container"
	"github.com/zosarillana/prs-be/internal/infrastructure/cache"
	httpapi "github.com/zosarillana/prs-be/internal/interfaces/http"
)

// ToContainerConfig converts the file-based Config loaded by viper into the
// container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Server: httpapi.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			Mode:           c.Server.Mode,
			AllowedOrigins: c.Server.AllowedOrigins,
		},
		Auth: container.AuthConfig{
			JWTSecret: c.Auth.JWTSecret,
			Issuer:    c.Auth.Issuer,
			TokenTTL:  c.Auth.TokenTTL,
		},
		Cache: container.CacheConfig{
			Driver:        c.Cache.Driver,
			TTL:           c.Cache.TTL,
			SweepInterval: c.Cache.SweepInterval,
			Redis: cache.RedisConfig{
				Addr:     c.Cache.Redis.Addr,
				Password: c.Cache.Redis.Password,
				DB:       c.Cache.Redis.DB,
				Prefix:   c.Cache.Redis.Prefix,
			},
		},
		Lark: container.LarkConfig{
			Enabled:   c.Lark.Enabled,
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
		},
		Export: container.ExportConfig{Dir: c.Export.Dir},
		WebSocket: container.WebSocketConfig{
			Enabled:        c.WebSocket.Enabled,
			AllowedOrigins: c.WebSocket.AllowedOrigins,
		},
		DBStatsInterval: c.Metrics.DBStatsInterval,
	}
}

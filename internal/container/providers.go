package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/application/service"
	"github.com/zosarillana/prs-be/internal/domain/event"
	"github.com/zosarillana/prs-be/internal/infrastructure/auth"
	"github.com/zosarillana/prs-be/internal/infrastructure/broadcast"
	"github.com/zosarillana/prs-be/internal/infrastructure/cache"
	"github.com/zosarillana/prs-be/internal/infrastructure/export"
	infraLark "github.com/zosarillana/prs-be/internal/infrastructure/external/lark"
	"github.com/zosarillana/prs-be/internal/infrastructure/metrics"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/repository"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
	"github.com/zosarillana/prs-be/internal/infrastructure/storage"
	"github.com/zosarillana/prs-be/internal/infrastructure/worker"
	"github.com/zosarillana/prs-be/migrations"
	"github.com/zosarillana/prs-be/pkg/database"
	"github.com/zosarillana/prs-be/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// CacheBundle holds the summary cache and, for the redis driver, its client.
type CacheBundle struct {
	Cache  port.Cache
	Memory *cache.MemoryCache
	Redis  *cache.RedisCache
}

// LiveBundle holds the websocket hub and its upgrader.
type LiveBundle struct {
	Hub      *broadcast.Hub
	Upgrader *broadcast.Upgrader
}

// ServiceDeps are the inputs of ProvideServices.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Cache      port.Cache
	CacheTTL   time.Duration
	Storage    port.FileStorage
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(sqlDB, migrations.FS, logger).Run()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		SqlDB:          sqlDB,
		TransactionMgr: sqlite.NewDB(sqlDB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Report:       repository.NewReportRepository(sqlDB, logger),
		Tag:          repository.NewTagRepository(sqlDB, logger),
		User:         repository.NewUserRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
		Audit:        repository.NewAuditRepository(sqlDB, logger),
		Progress:     repository.NewProgressRepository(sqlDB, logger),
	}, nil
}

// ProvideCache creates the summary cache for the configured driver.
// The redis driver is pinged so a bad address fails startup.
func ProvideCache(ctx context.Context, cfg *CacheConfig, logger *zap.Logger) (*CacheBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case CacheRedis:
		client := cache.NewRedisClient(cfg.Redis)
		rc := cache.NewRedisCache(client, cfg.Redis.Prefix, logger)
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("Using redis summary cache", zap.String("addr", cfg.Redis.Addr))
		return &CacheBundle{Cache: rc, Redis: rc}, nil
	case CacheMemory, "":
		mc := cache.NewMemoryCache(cfg.SweepInterval, logger)
		return &CacheBundle{Cache: mc, Memory: mc}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// ProvideMessenger creates the Lark direct message sender.
// It returns nil when Lark delivery is disabled.
func ProvideMessenger(cfg *LarkConfig, logger *zap.Logger) (port.MessageSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if !cfg.Enabled {
		logger.Info("Lark delivery disabled")
		return nil, nil
	}
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("lark app id and secret are required")
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}, logger)
	return infraLark.NewMessenger(client, logger), nil
}

// ProvideStorage creates the export file storage.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	return storage.NewLocalFileStorage(cfg.Dir, logger), nil
}

// ProvideDispatcher creates the event dispatcher with handler metrics.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger)),
		dispatcher.WithObserver(metrics.ObserveHandler),
	), nil
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.TxManager == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("repositories, transaction manager and dispatcher are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	log := utils.NewKVLogger(deps.Logger)
	repos := deps.Repos

	audit := service.NewAuditService(repos.Audit, log)
	notifications := service.NewNotificationService(repos.Notification, repos.User, deps.Dispatcher, log)
	summaries := service.NewSummaryCache(deps.Cache, deps.CacheTTL, log)

	reports := service.NewReportService(repos.Report, repos.Tag, deps.TxManager, audit, notifications, summaries, deps.Dispatcher, log)

	return &ServiceBundle{
		Reports:       reports,
		Approval:      service.NewApprovalService(repos.Report, deps.TxManager, audit, notifications, summaries, deps.Dispatcher, log),
		PO:            service.NewPOService(repos.Report, deps.TxManager, audit, notifications, summaries, deps.Dispatcher, log),
		Progress:      service.NewProgressService(repos.Progress, reports, deps.TxManager, audit, log),
		Export:        service.NewExportService(repos.Report, export.NewExcelExporter(deps.Logger), deps.Storage, log),
		Notifications: notifications,
		Audit:         audit,
	}, nil
}

// ProvideLive creates the websocket hub and the upgrader for /ws.
func ProvideLive(cfg *WebSocketConfig, logger *zap.Logger) (*LiveBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("websocket config is required")
	}
	if !cfg.Enabled {
		return nil, nil
	}
	hub := broadcast.NewHub(logger)
	return &LiveBundle{
		Hub:      hub,
		Upgrader: broadcast.NewUpgrader(hub, cfg.AllowedOrigins, logger),
	}, nil
}

// ProvideTokens creates the bearer token manager.
func ProvideTokens(cfg *AuthConfig) (*auth.TokenManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}
	return auth.NewTokenManager(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
}

// SubscriptionDeps are the event consumers wired by RegisterSubscriptions.
type SubscriptionDeps struct {
	Dispatcher dispatcher.Dispatcher
	Live       *LiveBundle
	Messenger  port.MessageSender
	Logger     *zap.Logger
}

// RegisterSubscriptions attaches every event consumer to the dispatcher.
func RegisterSubscriptions(deps *SubscriptionDeps) error {
	if deps == nil || deps.Dispatcher == nil {
		return fmt.Errorf("dispatcher is required")
	}

	if deps.Live != nil {
		broadcast.Subscribe(deps.Dispatcher, deps.Live.Hub)
	}
	if deps.Messenger != nil {
		infraLark.Subscribe(deps.Dispatcher, deps.Messenger, deps.Logger)
	}
	deps.Dispatcher.SubscribeNamed(event.TypeReportUpdated, "metrics-report-events",
		"Counts report lifecycle actions", metrics.ReportEventHandler)

	return nil
}

// WorkerDeps are the inputs of ProvideWorkers.
type WorkerDeps struct {
	SqlDB           *sql.DB
	Live            *LiveBundle
	Cache           *CacheBundle
	DBStatsInterval time.Duration
	Logger          *zap.Logger
}

// ProvideWorkers registers the background loops in start order.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil || deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	m := worker.NewManager(deps.Logger)
	if deps.Live != nil {
		m.Register(deps.Live.Hub)
	}
	if deps.Cache != nil && deps.Cache.Memory != nil {
		m.Register(deps.Cache.Memory)
	}
	if deps.SqlDB != nil {
		m.Register(metrics.NewDBCollector(deps.SqlDB, deps.DBStatsInterval))
	}
	return m, nil
}

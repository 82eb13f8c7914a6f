// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	aiapp "github.com/foodisave/backend/internal/application/ai"
	itemsapp "github.com/foodisave/backend/internal/application/items"
	recipeapp "github.com/foodisave/backend/internal/application/recipe"
	socialapp "github.com/foodisave/backend/internal/application/social"
	userapp "github.com/foodisave/backend/internal/application/user"
	"github.com/foodisave/backend/internal/infrastructure/ai"
	"github.com/foodisave/backend/internal/infrastructure/ai/gemini"
	"github.com/foodisave/backend/internal/infrastructure/ai/moderation"
	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/infrastructure/email"
	"github.com/foodisave/backend/internal/infrastructure/http/server"
	"github.com/foodisave/backend/internal/infrastructure/monitoring"
	gormrepo "github.com/foodisave/backend/internal/infrastructure/persistence/gorm"
	"github.com/foodisave/backend/internal/infrastructure/persistence/memory"
	"github.com/foodisave/backend/internal/infrastructure/persistence/migrations"
	"github.com/foodisave/backend/internal/infrastructure/persistence/postgres"
	"github.com/foodisave/backend/internal/infrastructure/persistence/redis"
	"github.com/foodisave/backend/internal/infrastructure/persistence/sqlite"
	"github.com/foodisave/backend/internal/infrastructure/security"
	"github.com/foodisave/backend/internal/infrastructure/storage"
	"github.com/foodisave/backend/internal/ports/inbound"
	"github.com/foodisave/backend/internal/ports/outbound"
	"github.com/foodisave/backend/pkg/healthcheck"
	"github.com/foodisave/backend/pkg/logger"
)

// Module provides all dependency injection modules
func Module(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		LoggerModule,
		MonitoringModule,
		DatabaseModule,
		CacheModule,
		AdapterModule,
		RepositoryModule,
		ServiceModule,
		HTTPModule,
		LifecycleModule,
	)
}

// ConfigModule provides configuration
func ConfigModule(path string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(path)
	})
}

// LoggerModule provides the root logger and its level handle.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		log, level, err := logger.New(logger.Config{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			Development: cfg.IsDevelopment(),
		})
		if err != nil {
			return nil, level, err
		}
		zap.ReplaceGlobals(log)
		return log.With(zap.String("service", cfg.App.Name)), level, nil
	},
)

// MonitoringModule provides the metrics registry and, when enabled, the tracer provider.
var MonitoringModule = fx.Provide(
	func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		return reg
	},
	monitoring.NewMetrics,
	func(m *monitoring.Metrics) outbound.BusinessMetrics { return m },
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// DatabaseModule opens PostgreSQL (with migrations and replicas) or a SQLite file.
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, reg *prometheus.Registry) (*gorm.DB, error) {
		switch cfg.Database.Driver {
		case "sqlite":
			db, err := sqlite.SetupDatabase(cfg.Database.Path, postgres.GormConfig(log, cfg))
			if err != nil {
				return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
			}
			if cfg.IsDevelopment() {
				if err := sqlite.SeedDatabase(db); err != nil {
					log.Warn("Failed to seed database", zap.Error(err))
				}
			}
			log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
			lc.Append(fx.StopHook(func() error { return closeDB(db) }))
			return db, nil
		default:
			if cfg.Database.AutoMigrate {
				if err := migrations.Run(cfg.GetDatabaseURL(), cfg.Database.Database, log.Named("migrations")); err != nil {
					return nil, err
				}
			}
			pg, err := postgres.Open(cfg, log.Named("database"))
			if err != nil {
				return nil, err
			}
			if err := reg.Register(pg.StatsCollector()); err != nil {
				log.Warn("Failed to register database stats collector", zap.Error(err))
			}
			lc.Append(fx.StopHook(pg.Close))
			return pg.DB, nil
		}
	},
)

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CacheModule provides the AI response cache: Redis when enabled, process memory otherwise.
// The Redis client is nil when Redis is disabled.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, goredis.UniversalClient, error) {
		if !cfg.Redis.Enabled {
			log.Info("Using in-memory cache")
			cache := memory.NewCacheRepository()
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go cache.Run(ctx, time.Minute)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return cache, nil, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		lc.Append(fx.StopHook(client.Close))
		log.Info("Connected to Redis", zap.String("addr", cfg.GetRedisAddr()))
		return redis.NewCacheRepository(client, log.Named("redis")), client, nil
	},
)

// AdapterModule provides the clients of external services.
var AdapterModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger, m *monitoring.Metrics) outbound.GenerativeModel {
		if cfg.AI.APIKey == "" {
			log.Warn("ai.api_key is empty; generative endpoints will fail")
		}
		return gemini.NewClient(cfg.AI, log, gemini.WithStateObserver(m.BreakerState))
	},
	func(cfg *config.Config, log *zap.Logger, cache outbound.CacheRepository, m *monitoring.Metrics) outbound.ResponseCache {
		return ai.NewResponseCache(cache, cfg.AI.CacheTTL, log, m.AICache)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.ImageClassifier {
		return moderation.NewClient(cfg.Moderation, log)
	},
	func(cfg *config.Config, log *zap.Logger) (outbound.StorageService, error) {
		return storage.NewS3Storage(cfg.Storage, log)
	},
	func(cfg *config.Config, log *zap.Logger, m *monitoring.Metrics) (outbound.EmailService, error) {
		client, err := email.NewClient(cfg.Email, log, email.WithObserver(m.EmailSent))
		if err != nil {
			return nil, err
		}
		if !client.Configured() {
			log.Warn("email.postmark_token is empty; account mails will not be delivered")
		}
		return client, nil
	},
	func(cfg *config.Config, log *zap.Logger) *security.AuthService {
		return security.NewAuthService(cfg.Auth, log)
	},
	func(cfg *config.Config) *security.PasswordHasher {
		return security.NewPasswordHasher(cfg.Auth)
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormrepo.NewTransactor,
	gormrepo.NewCreditLedger,
	gormrepo.NewRecipeRepository,
	gormrepo.NewUserRecipeRepository,
	gormrepo.NewUserRepository,
	gormrepo.NewTokenRepository,
	gormrepo.NewSavedItemRepository,
	gormrepo.NewSocialRepository,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	aiapp.NewBridge,
	func(cfg *config.Config, classifier outbound.ImageClassifier, m outbound.BusinessMetrics, log *zap.Logger) *aiapp.ModerationGate {
		return aiapp.NewModerationGate(classifier, cfg.Moderation.UnsafeLabel, m, log)
	},
	fx.Annotate(recipeapp.NewRecipeService, fx.As(new(inbound.RecipeService))),
	fx.Annotate(
		func(
			cfg *config.Config,
			repo outbound.UserRecipeRepository,
			ledger outbound.CreditLedger,
			tx outbound.Transactor,
			gate *aiapp.ModerationGate,
			store outbound.StorageService,
			m outbound.BusinessMetrics,
			log *zap.Logger,
		) *recipeapp.UserRecipeService {
			return recipeapp.NewUserRecipeService(repo, ledger, tx, gate, store, storage.ObjectKey, cfg.Storage.UploadFolder, m, log)
		},
		fx.As(new(inbound.UserRecipeService)),
	),
	fx.Annotate(
		func(
			cfg *config.Config,
			recipes outbound.RecipeRepository,
			items outbound.SavedItemRepository,
			ledger outbound.CreditLedger,
			tx outbound.Transactor,
			bridge *aiapp.Bridge,
			gate *aiapp.ModerationGate,
			m outbound.BusinessMetrics,
			log *zap.Logger,
		) *aiapp.Service {
			return aiapp.NewService(recipes, items, ledger, tx, bridge, gate, cfg.Credits, m, log)
		},
		fx.As(new(inbound.AIService)),
	),
	fx.Annotate(
		func(
			cfg *config.Config,
			users outbound.UserRepository,
			tokens outbound.TokenRepository,
			ledger outbound.CreditLedger,
			tx outbound.Transactor,
			auth *security.AuthService,
			hasher *security.PasswordHasher,
			mail outbound.EmailService,
			m outbound.BusinessMetrics,
			log *zap.Logger,
		) *userapp.UserService {
			return userapp.NewUserService(users, tokens, ledger, tx, auth, hasher, mail, cfg.Auth, cfg.Credits, m, log)
		},
		fx.As(new(inbound.UserService)),
	),
	fx.Annotate(itemsapp.NewService, fx.As(new(inbound.ItemService))),
	fx.Annotate(socialapp.NewService, fx.As(new(inbound.SocialService))),
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger, db *gorm.DB, client goredis.UniversalClient) (*healthcheck.HealthCheck, error) {
		health := healthcheck.New(cfg.App.Version, log.Named("health"))
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
		if client != nil {
			health.Register("redis", healthcheck.NewRedisChecker(client))
		}
		return health, nil
	},
	func(
		recipes inbound.RecipeService,
		userRecipes inbound.UserRecipeService,
		aiService inbound.AIService,
		users inbound.UserService,
		items inbound.ItemService,
		social inbound.SocialService,
	) server.Services {
		return server.Services{
			Recipes:     recipes,
			UserRecipes: userRecipes,
			AI:          aiService,
			Users:       users,
			Items:       items,
			Social:      social,
		}
	},
	func(cfg *config.Config, log *zap.Logger, services server.Services, m *monitoring.Metrics, health *healthcheck.HealthCheck) *server.Server {
		if !cfg.Monitoring.EnableMetrics {
			m = nil
		}
		return server.NewServer(cfg, log, services, m, health)
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks starts the HTTP server, follows config edits and flushes on stop.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	level zap.AtomicLevel,
	tracing *monitoring.TracingProvider,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting foodisave",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)

			cfg.Watch(func(next *config.Config, event fsnotify.Event, err error) {
				if err != nil {
					log.Error("Ignoring invalid configuration change", zap.String("file", event.Name), zap.Error(err))
					return
				}
				log.Info("Configuration file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				if lvl := logger.ParseLevel(next.Logging.Level); lvl != level.Level() {
					level.SetLevel(lvl)
					log.Info("Log level changed", zap.String("level", lvl.String()))
				}
			})

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down foodisave")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}

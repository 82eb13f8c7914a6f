// Package postgres opens the production database and bulk loads the recipe catalog.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/foodisave/backend/internal/infrastructure/config"
)

const pingTimeout = 10 * time.Second

// Database is an open PostgreSQL connection. Reads outside transactions go to the
// replicas when any are configured.
type Database struct {
	DB      *gorm.DB
	primary *sql.DB
	name    string
	logger  *zap.Logger
}

// Open connects to the primary, sizes its pool, verifies it answers and registers the
// replicas. A replica that cannot be registered is logged and skipped.
func Open(cfg *config.Config, log *zap.Logger) (*Database, error) {
	dbc := cfg.Database

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), GormConfig(log, cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", dbc.Host, err)
	}
	primary, err := db.DB()
	if err != nil {
		return nil, err
	}
	primary.SetMaxOpenConns(dbc.MaxOpenConns)
	primary.SetMaxIdleConns(dbc.MaxIdleConns)
	primary.SetConnMaxLifetime(dbc.ConnMaxLifetime)
	primary.SetConnMaxIdleTime(dbc.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := primary.PingContext(ctx); err != nil {
		primary.Close()
		return nil, fmt.Errorf("ping %s: %w", dbc.Host, err)
	}

	if err := useReplicas(db, dbc); err != nil {
		log.Warn("Read replicas disabled", zap.Error(err))
	}

	log.Info("Connected to PostgreSQL",
		zap.String("host", dbc.Host),
		zap.String("database", dbc.Database),
		zap.Int("max_open_conns", dbc.MaxOpenConns),
		zap.Int("replicas", len(dbc.ReplicaDSNs)),
	)
	return &Database{DB: db, primary: primary, name: dbc.Database, logger: log}, nil
}

func useReplicas(db *gorm.DB, dbc config.DatabaseConfig) error {
	if len(dbc.ReplicaDSNs) == 0 {
		return nil
	}
	dialectors := make([]gorm.Dialector, 0, len(dbc.ReplicaDSNs))
	for _, dsn := range dbc.ReplicaDSNs {
		dialectors = append(dialectors, postgres.Open(dsn))
	}
	resolver := dbresolver.Register(dbresolver.Config{
		Replicas: dialectors,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(dbc.MaxOpenConns).
		SetMaxIdleConns(dbc.MaxIdleConns).
		SetConnMaxLifetime(dbc.ConnMaxLifetime)
	return db.Use(resolver)
}

// GormConfig is shared by the PostgreSQL and SQLite drivers. Duplicate keys surface as
// gorm.ErrDuplicatedKey and timestamps are UTC.
func GormConfig(log *zap.Logger, cfg *config.Config) *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(log.Named("gorm"), cfg.Database.SlowQueryThreshold, cfg.Logging.Level),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// StatsCollector exports the primary pool statistics.
func (d *Database) StatsCollector() prometheus.Collector {
	return collectors.NewDBStatsCollector(d.primary, d.name)
}

// Close closes the primary pool.
func (d *Database) Close() error {
	if err := d.primary.Close(); err != nil {
		d.logger.Error("Closing database failed", zap.Error(err))
		return err
	}
	return nil
}

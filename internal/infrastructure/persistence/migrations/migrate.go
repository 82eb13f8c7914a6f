// Package migrations applies the embedded PostgreSQL schema with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var schema embed.FS

const versionTable = "schema_migrations"

// ErrDirtySchema means an earlier run stopped halfway and the schema needs manual repair.
var ErrDirtySchema = errors.New("migrations: schema is dirty")

// Run opens a dedicated connection to url and brings the schema of databaseName up to the
// newest embedded version. The connection is closed before returning.
func Run(url, databaseName string, logger *zap.Logger) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	m, err := open(db, databaseName)
	if err != nil {
		db.Close()
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Closing migrator failed", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	return apply(m, logger)
}

func open(db *sql.DB, databaseName string) (*migrate.Migrate, error) {
	src, err := iofs.New(schema, "sql")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: versionTable,
		DatabaseName:    databaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrator: %w", err)
	}
	return m, nil
}

func apply(m *migrate.Migrate, logger *zap.Logger) error {
	from, err := version(m)
	if err != nil {
		return err
	}

	start := time.Now()
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Schema is up to date", zap.Uint("version", from))
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations from version %d: %w", from, err)
	}

	to, _ := version(m)
	logger.Info("Schema migrated",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// version is 0 on an empty database.
func version(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)
	case dirty:
		return v, fmt.Errorf("%w at version %d", ErrDirtySchema, v)
	}
	return v, nil
}

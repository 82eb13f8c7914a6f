// Command import bulk-loads the recipe catalog from a CSV export into PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/infrastructure/persistence/migrations"
	"github.com/foodisave/backend/internal/infrastructure/persistence/postgres"
	"github.com/foodisave/backend/pkg/logger"
)

func main() {
	file := flag.String("file", "", "CSV file with the recipe catalog")
	configPath := flag.String("config", "", "path to config.yaml")
	migrate := flag.Bool("migrate", true, "apply pending migrations before importing")
	flag.Parse()

	if err := run(*file, *configPath, *migrate); err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(1)
	}
}

func run(file, configPath string, migrate bool) error {
	if file == "" {
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("import needs database.driver postgres, got %q", cfg.Database.Driver)
	}

	log, _, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	defer log.Sync()
	log = log.Named("import")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if migrate {
		if err := migrations.Run(cfg.GetDatabaseURL(), cfg.Database.Database, log); err != nil {
			return err
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	recipes, stats, err := postgres.ParseRecipeCSV(f)
	if err != nil {
		return err
	}

	importer, err := postgres.NewRecipeImporter(ctx, cfg.GetDatabaseURL(), log)
	if err != nil {
		return err
	}
	defer importer.Close()

	stats.Inserted, err = importer.Import(ctx, recipes)
	if err != nil {
		return err
	}

	log.Info("Import finished",
		zap.String("file", file),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("inserted", stats.Inserted),
	)
	return nil
}

// Package main is the entry point of the foodisave API server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/foodisave/backend/internal/infrastructure/container"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (searched in ., ./config and /etc/foodisave when empty)")
	flag.Parse()

	app := fx.New(
		fx.NopLogger,
		container.Module(*configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := app.Stop(shutdownCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
		exitCode = 1
	}
	shutdownCancel()
	os.Exit(exitCode)
}

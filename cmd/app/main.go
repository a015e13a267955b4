package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fulfillment/cmd"
	"fulfillment/internal/pkg/telemetry"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

const serviceName = "fulfillment"

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

// run owns every resource of the process so deferred cleanup runs before main exits.
func run() error {
	config, err := cmd.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := telemetry.NewLogger(os.Stdout, config.LogLevel, config.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, config.TracingConfig(serviceName))
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Error("Failed to flush traces", "error", err)
		}
	}()

	repo, closeStore, err := cmd.OpenOrderStore(config)
	if err != nil {
		return fmt.Errorf("failed to open %s order store: %w", config.StoreBackend, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close order store", "error", err)
		}
	}()

	app, err := cmd.NewCompositionRoot(config, repo, logger)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Dispatcher().Wait()

	router := app.CreateRouter()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server started", "port", config.HTTPPort, "store", config.StoreBackend)
		if err := router.Start(fmt.Sprintf("0.0.0.0:%d", config.HTTPPort)); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return router.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("HTTP server stopped: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

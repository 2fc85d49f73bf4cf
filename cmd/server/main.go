package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/sancheck/internal/logging"
	"github.com/xtding233/sancheck/internal/metrics"
	"github.com/xtding233/sancheck/internal/platform/config"
	"github.com/xtding233/sancheck/internal/scenario"
	"github.com/xtding233/sancheck/internal/service"
	"github.com/xtding233/sancheck/internal/transport/grpcapi"
	"github.com/xtding233/sancheck/internal/transport/httpapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := scenario.NewLoader(cfg.ConfigDir)
	rec := metrics.New()
	svc := service.New(
		service.WithLoader(loader),
		service.WithLogger(logger),
		service.WithMetrics(rec),
		service.WithWorkers(cfg.Workers),
	)

	grpcServer, err := grpcapi.NewServer(cfg.GRPCAddr, svc, logger)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewHandler(svc, rec, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scenario.NewWatcher(loader, cfg.WatchInterval, logger, nil).Run(ctx)
		return nil
	})
	g.Go(func() error {
		return grpcServer.Serve(ctx)
	})
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "config_dir", cfg.ConfigDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("server stopped", slog.Any("error", err))
	return err
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/navgrid/internal/bootstrap"
	"github.com/udisondev/navgrid/internal/db"
	"github.com/udisondev/navgrid/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.SetupLogging(cfg)

	slog.Info("navgrid server starting", "bind", cfg.Server.BindAddress, "port", cfg.Server.Port)

	pf, err := bootstrap.NewPathfinder(cfg)
	if err != nil {
		return fmt.Errorf("building pathfinder: %w", err)
	}

	var store *db.RouteStore
	if cfg.Database.Enabled {
		database, s, err := bootstrap.OpenStore(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close()
		store = s
	}

	if err := bootstrap.PrepareRoutes(ctx, cfg.Precompute, pf, store); err != nil {
		return fmt.Errorf("preparing routes: %w", err)
	}

	hcfg := server.HandlerConfig{
		Workers:      1,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Precompute.Parallel {
		hcfg.Workers = cfg.Precompute.Workers
	}
	if store != nil {
		hcfg.Saver = store
	}
	srv := server.New(cfg.Server, server.NewHandler(pf, hcfg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("navgrid server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

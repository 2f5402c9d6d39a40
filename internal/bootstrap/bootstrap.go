// Package bootstrap turns configuration into a ready Pathfinder. It holds
// the startup sequence shared by navserver and navtool.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/udisondev/navgrid/internal/config"
	"github.com/udisondev/navgrid/internal/db"
	"github.com/udisondev/navgrid/internal/geo"
)

// ConfigPath is the config file used when NAVGRID_CONFIG is unset.
const ConfigPath = "config/navgrid.yaml"

// LoadConfig loads the config file named by NAVGRID_CONFIG, or ConfigPath.
func LoadConfig() (config.Config, error) {
	path := ConfigPath
	if p := os.Getenv("NAVGRID_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// SetupLogging installs a text slog handler on stdout at the configured level.
func SetupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
}

// BuildGrid reads the configured snapshot, or generates a random grid.
func BuildGrid(cfg config.GridConfig) (*geo.Grid, error) {
	if cfg.Snapshot != "" {
		g, err := geo.LoadSnapshotFile(cfg.Snapshot)
		if err != nil {
			return nil, err
		}
		slog.Info("grid loaded", "snapshot", cfg.Snapshot, "width", g.Width(), "height", g.Height())
		return g, nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	g, err := geo.NewRandomGrid(cfg.Width, cfg.Height, cfg.ObstaclePercentage, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return nil, fmt.Errorf("generating grid: %w", err)
	}
	slog.Info("grid generated", "width", g.Width(), "height", g.Height(),
		"obstacles", cfg.ObstaclePercentage, "seed", seed, "walkable", g.WalkableCount())
	return g, nil
}

// NewPathfinder builds the grid and partitions it.
func NewPathfinder(cfg config.Config) (*geo.Pathfinder, error) {
	g, err := BuildGrid(cfg.Grid)
	if err != nil {
		return nil, err
	}
	pf, err := geo.New(g, geo.WithTileSize(cfg.Regions.TileWidth, cfg.Regions.TileHeight))
	if err != nil {
		return nil, err
	}
	slog.Info("regions built", "regions", pf.Regions().Len(),
		"columns", pf.Regions().RegionsX(), "rows", pf.Regions().RegionsY())
	return pf, nil
}

// PrecomputeOptions maps the precompute section to geo options.
func PrecomputeOptions(cfg config.PrecomputeConfig) []geo.PrecomputeOption {
	if !cfg.Parallel {
		return nil
	}
	return []geo.PrecomputeOption{geo.WithParallel(cfg.Workers)}
}

// OpenStore connects to the database and applies migrations.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*db.DB, *db.RouteStore, error) {
	if err := db.RunMigrations(ctx, cfg.DSN()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	database, err := db.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database connected", "host", cfg.Host, "dbname", cfg.DBName)
	return database, db.NewRouteStore(database.Pool()), nil
}

// PrepareRoutes installs a stored route table when store has one for the
// current layout, and otherwise precomputes (and saves, if store is set).
// With precompute disabled and nothing stored, pf is left without routes.
func PrepareRoutes(ctx context.Context, cfg config.PrecomputeConfig, pf *geo.Pathfinder, store *db.RouteStore) error {
	if store != nil {
		ok, err := store.LoadRoutes(ctx, pf)
		if err != nil {
			return fmt.Errorf("loading routes: %w", err)
		}
		if ok {
			return nil
		}
	}

	if !cfg.Enabled {
		slog.Warn("precompute disabled, cross-region queries will miss")
		return nil
	}
	if _, err := pf.Precompute(ctx, PrecomputeOptions(cfg)...); err != nil {
		return err
	}

	if store != nil {
		if _, err := store.SaveRoutes(ctx, pf); err != nil {
			return fmt.Errorf("saving routes: %w", err)
		}
	}
	return nil
}

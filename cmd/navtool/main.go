// navtool is the offline companion of navserver: it generates grid
// snapshots, precomputes and stores route tables, and benchmarks queries.
//
// Usage:
//
//	go run ./cmd/navtool generate -width 200 -height 200 -obstacles 30 -out grid.txt
//	go run ./cmd/navtool precompute -snapshot grid.txt -save
//	go run ./cmd/navtool bench -snapshot grid.txt -n 100
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/udisondev/navgrid/internal/bootstrap"
	"github.com/udisondev/navgrid/internal/config"
	"github.com/udisondev/navgrid/internal/db"
	"github.com/udisondev/navgrid/internal/geo"
	"github.com/udisondev/navgrid/internal/report"
)

const usage = `usage: navtool <command> [flags]

commands:
  generate    write a random grid snapshot
  precompute  build the route table, optionally storing it
  bench       time exact A* against hierarchical queries
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "generate":
		err = generate(args)
	case "precompute":
		err = precompute(ctx, args)
	case "bench":
		err = bench(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func generate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	width := fs.Int("width", 100, "grid width in cells")
	height := fs.Int("height", 100, "grid height in cells")
	obstacles := fs.Float64("obstacles", 30, "obstacle percentage [0,100]")
	seed := fs.Uint64("seed", 0, "random seed (0 = time-based)")
	out := fs.String("out", "grid.txt", "snapshot file to write")
	fs.Parse(args)

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	g, err := geo.NewRandomGrid(*width, *height, *obstacles, rand.New(rand.NewPCG(s, s)))
	if err != nil {
		return err
	}
	if err := geo.SaveSnapshotFile(*out, g); err != nil {
		return err
	}

	fmt.Printf("snapshot:  %s\n", *out)
	fmt.Printf("size:      %dx%d\n", g.Width(), g.Height())
	fmt.Printf("walkable:  %d/%d\n", g.WalkableCount(), g.Len())
	fmt.Printf("seed:      %d\n", s)
	return nil
}

// loadConfig reads the config and applies the flags shared by precompute and bench.
func loadConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	snapshot := fs.String("snapshot", "", "grid snapshot (overrides config)")
	tile := fs.Float64("tile", 0, "square tile size (overrides config)")
	workers := fs.Int("workers", 0, "precompute workers, 1 = sequential (overrides config)")
	fs.Parse(args)

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if *snapshot != "" {
		cfg.Grid.Snapshot = *snapshot
	}
	if *tile > 0 {
		cfg.Regions.TileWidth, cfg.Regions.TileHeight = *tile, *tile
	}
	if *workers > 0 {
		cfg.Precompute.Parallel = *workers > 1
		cfg.Precompute.Workers = *workers
	}
	cfg.Precompute.Enabled = true
	bootstrap.SetupLogging(cfg)
	return cfg, nil
}

func precompute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("precompute", flag.ExitOnError)
	save := fs.Bool("save", false, "store the route table in the configured database")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	pf, err := bootstrap.NewPathfinder(cfg)
	if err != nil {
		return err
	}
	stats, err := pf.Precompute(ctx, bootstrap.PrecomputeOptions(cfg.Precompute)...)
	if err != nil {
		return err
	}

	fmt.Printf("cells:     %d walkable of %d\n", stats.Cells, pf.Grid().Len())
	fmt.Printf("regions:   %d\n", stats.Regions)
	fmt.Printf("routes:    %d\n", stats.Routes)
	fmt.Printf("searches:  %d\n", stats.Searches)
	fmt.Printf("workers:   %d\n", stats.Workers)
	fmt.Printf("elapsed:   %s\n", stats.Elapsed)

	if !*save {
		return nil
	}
	database, store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	id, err := store.SaveRoutes(ctx, pf)
	if err != nil {
		return err
	}
	fmt.Printf("stored:    grid %d\n", id)
	return nil
}

func bench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	n := fs.Int("n", report.DefaultRepetitions, "repetitions per method")
	startFlag := fs.String("start", "1,1", "start cell x,y")
	targetFlag := fs.String("target", "", "target cell x,y (default: bottom-right cell)")
	out := fs.String("out", "", "report directory (default: config report_dir)")
	useDB := fs.Bool("db", false, "load or store routes in the configured database")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	pf, err := bootstrap.NewPathfinder(cfg)
	if err != nil {
		return err
	}
	g := pf.Grid()

	start, err := parsePos(*startFlag)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}
	target := geo.Pos{X: g.Width() - 1, Y: g.Height() - 1}
	if *targetFlag != "" {
		if target, err = parsePos(*targetFlag); err != nil {
			return fmt.Errorf("parsing -target: %w", err)
		}
	}
	// Endpoints must be walkable for the timings to mean anything.
	if err := pf.SetWalkable(start); err != nil {
		return err
	}
	if err := pf.SetWalkable(target); err != nil {
		return err
	}
	fmt.Printf("nodes:     %d\n", g.Len())

	var store *db.RouteStore
	if *useDB {
		database, s, err := bootstrap.OpenStore(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close()
		store = s
	}
	began := time.Now()
	if err := bootstrap.PrepareRoutes(ctx, cfg.Precompute, pf, store); err != nil {
		return err
	}
	fmt.Printf("prepare:   %s\n", time.Since(began))

	rep, err := report.Run(ctx, pf, report.Options{Start: start, Target: target, Repetitions: *n})
	if err != nil {
		return err
	}
	rep.Log()

	for _, s := range rep.Summaries {
		fmt.Printf("average %-13s %.2f microseconds\n", s.Method+":", s.Mean)
	}

	dir := *out
	if dir == "" {
		dir = cfg.ReportDir
	}
	if err := rep.Save(dir); err != nil {
		return err
	}
	fmt.Printf("report:    %s\n", dir)
	return nil
}

func parsePos(s string) (geo.Pos, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Pos{}, errors.New("want x,y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return geo.Pos{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return geo.Pos{}, err
	}
	return geo.Pos{X: x, Y: y}, nil
}

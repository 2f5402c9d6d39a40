package geo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// PrecomputeOptions controls route table construction.
type PrecomputeOptions struct {
	Parallel bool
	Workers  int
	// Progress, if set, is called after each origin region finishes.
	// In parallel mode it is called from several goroutines.
	Progress func(done, total int)
}

// PrecomputeOption modifies PrecomputeOptions.
type PrecomputeOption func(*PrecomputeOptions)

// WithParallel spreads origin regions across workers goroutines.
// workers <= 0 selects DefaultWorkers; more workers than regions are
// capped at the region count.
func WithParallel(workers int) PrecomputeOption {
	return func(o *PrecomputeOptions) {
		o.Parallel = true
		o.Workers = workers
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn func(done, total int)) PrecomputeOption {
	return func(o *PrecomputeOptions) { o.Progress = fn }
}

// PrecomputeStats summarises one precompute run.
type PrecomputeStats struct {
	Cells    int // walkable origin cells processed
	Regions  int
	Routes   int // stored (cell, region) entries
	Searches int // exact searches executed
	Workers  int
	Elapsed  time.Duration
}

// AssignRegions returns the stride ownership partition of region ids:
// worker w owns w, w+workers, w+2*workers, ... Every region is owned by
// exactly one worker.
func AssignRegions(numRegions, workers int) [][]int {
	if workers <= 0 {
		workers = 1
	}
	owned := make([][]int, workers)
	for w := range workers {
		for r := w; r < numRegions; r += workers {
			owned[w] = append(owned[w], r)
		}
	}
	return owned
}

// Precompute builds the route table: for every walkable cell N and every
// region R other than N's own, it runs an exact search from N to each
// walkable member of R and keeps the path with the fewest waypoints.
//
// Waypoint count, not summed edge cost, selects the best route. With
// diagonal moves the two can disagree; the cached route is then not
// necessarily the cheapest entry into R.
//
// The previous table stays in place until the new one is complete. On
// cancellation the partial table is discarded and ctx.Err() returned.
func (pf *Pathfinder) Precompute(ctx context.Context, opts ...PrecomputeOption) (PrecomputeStats, error) {
	o := PrecomputeOptions{Workers: DefaultWorkers}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}

	start := time.Now()
	table := NewRouteTable(pf.grid.Len(), pf.regions.Len())
	table.SetGridVersion(pf.grid.Version())

	var (
		stats PrecomputeStats
		err   error
	)
	if o.Parallel {
		owned := AssignRegions(pf.regions.Len(), min(o.Workers, max(pf.regions.Len(), 1)))
		slog.Info("precompute started", "mode", "parallel", "workers", len(owned),
			"cells", pf.grid.Len(), "regions", pf.regions.Len())
		stats, err = pf.precomputeParallel(ctx, table, owned, o.Progress)
		for _, regions := range owned {
			if len(regions) > 0 {
				stats.Workers++
			}
		}
	} else {
		slog.Info("precompute started", "mode", "sequential",
			"cells", pf.grid.Len(), "regions", pf.regions.Len())
		stats, err = pf.precomputeSequential(ctx, table, o.Progress)
		stats.Workers = 1
	}
	if err != nil {
		return PrecomputeStats{}, fmt.Errorf("precomputing routes: %w", err)
	}

	stats.Regions = pf.regions.Len()
	stats.Routes = table.Len()
	stats.Elapsed = time.Since(start)
	pf.routes = table

	slog.Info("precompute finished", "routes", stats.Routes, "searches", stats.Searches,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// precomputeSequential walks every cell in index order with one search context.
func (pf *Pathfinder) precomputeSequential(ctx context.Context, table *RouteTable, progress func(done, total int)) (PrecomputeStats, error) {
	var stats PrecomputeStats
	sc := NewSearchContext(pf.grid.Len())
	total := pf.grid.Len()

	for cell := range total {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if pf.grid.walkable(cell) {
			stats.Cells++
			stats.Searches += pf.computeRow(cell, sc, table)
		}
		if progress != nil && (cell+1)%pf.grid.Width() == 0 {
			progress(cell+1, total)
		}
	}
	if progress != nil {
		progress(total, total)
	}
	return stats, nil
}

// precomputeParallel runs one goroutine per ownership slot. Each goroutine
// has its own search context and writes only rows of cells inside the
// regions it owns, so the shared table needs no locking.
func (pf *Pathfinder) precomputeParallel(ctx context.Context, table *RouteTable, owned [][]int, progress func(done, total int)) (PrecomputeStats, error) {
	g, gctx := errgroup.WithContext(ctx)

	perWorker := make([]PrecomputeStats, len(owned))
	var done atomic.Int64
	total := pf.regions.Len()

	for w, regions := range owned {
		if len(regions) == 0 {
			continue
		}
		g.Go(func() error {
			sc := NewSearchContext(pf.grid.Len())
			st := &perWorker[w]
			for _, r := range regions {
				for _, m := range pf.regions.Members(r) {
					if err := gctx.Err(); err != nil {
						return err
					}
					cell := int(m)
					if !pf.grid.walkable(cell) {
						continue
					}
					st.Cells++
					st.Searches += pf.computeRow(cell, sc, table)
				}
				n := int(done.Add(1))
				slog.Debug("region precomputed", "region", r, "worker", w, "done", n, "total", total)
				if progress != nil {
					progress(n, total)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return PrecomputeStats{}, err
	}

	var stats PrecomputeStats
	for _, st := range perWorker {
		stats.Cells += st.Cells
		stats.Searches += st.Searches
	}
	return stats, nil
}

// computeRow fills table[cell][R] for every foreign region R and returns
// the number of searches run.
func (pf *Pathfinder) computeRow(cell int, sc *SearchContext, table *RouteTable) int {
	searches := 0
	own := pf.regions.RegionOf(cell)

	for r := range pf.regions.Len() {
		if r == own {
			continue
		}
		var best Path
		for _, m := range pf.regions.Members(r) {
			if !pf.grid.walkable(int(m)) {
				continue
			}
			res := Search(pf.grid, cell, int(m), sc)
			searches++
			if res.Found && (best == nil || len(res.Path) < len(best)) {
				best = res.Path
			}
		}
		if best != nil {
			table.Set(cell, r, best)
		}
	}
	return searches
}

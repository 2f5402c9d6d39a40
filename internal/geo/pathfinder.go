package geo

import (
	"fmt"
	"log/slog"
	"sync"
)

// Outcome describes how a query was answered.
type Outcome uint8

const (
	OutcomeSameRegion Outcome = iota
	OutcomeCachedRoute
	OutcomeStitched
	OutcomeUnreachable
	OutcomeMissingRoute
	OutcomeLastMileUnreachable
)

var outcomeNames = [...]string{
	OutcomeSameRegion:          "same_region",
	OutcomeCachedRoute:         "cached_route",
	OutcomeStitched:            "stitched",
	OutcomeUnreachable:         "unreachable",
	OutcomeMissingRoute:        "missing_route",
	OutcomeLastMileUnreachable: "last_mile_unreachable",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", o)
}

// Found reports whether the outcome carries a non-empty path.
func (o Outcome) Found() bool {
	return o == OutcomeSameRegion || o == OutcomeCachedRoute || o == OutcomeStitched
}

// QueryResult is a routed path and how it was produced.
type QueryResult struct {
	Path    Path
	Outcome Outcome
}

// Options configures a Pathfinder.
type Options struct {
	TileWidth, TileHeight float64
}

// Option modifies Options.
type Option func(*Options)

// WithTileSize sets the region tile dimensions in cells.
func WithTileSize(w, h float64) Option {
	return func(o *Options) {
		o.TileWidth = w
		o.TileHeight = h
	}
}

// Pathfinder answers shortest-path queries on a grid, using exact A*
// within a region and precomputed cell→region routes across regions.
//
// Queries are re-entrant. Grid mutations and Precompute must not run
// concurrently with queries; mutations do not invalidate the route table.
type Pathfinder struct {
	grid    *Grid
	regions *Partition
	routes  *RouteTable // nil until precomputed or loaded

	scratch sync.Pool // *SearchContext
}

// New partitions g into regions and returns a Pathfinder without routes.
func New(g *Grid, opts ...Option) (*Pathfinder, error) {
	o := Options{TileWidth: DefaultTileWidth, TileHeight: DefaultTileHeight}
	for _, opt := range opts {
		opt(&o)
	}

	regions, err := NewPartition(g, o.TileWidth, o.TileHeight)
	if err != nil {
		return nil, fmt.Errorf("partitioning grid: %w", err)
	}

	pf := &Pathfinder{grid: g, regions: regions}
	n := g.Len()
	pf.scratch.New = func() any { return NewSearchContext(n) }
	return pf, nil
}

// Grid returns the underlying grid.
func (pf *Pathfinder) Grid() *Grid { return pf.grid }

// Regions returns the region partition.
func (pf *Pathfinder) Regions() *Partition { return pf.regions }

// Routes returns the current route table, or nil.
func (pf *Pathfinder) Routes() *RouteTable { return pf.routes }

// SetRoutes installs a previously built table, e.g. one loaded from storage.
func (pf *Pathfinder) SetRoutes(t *RouteTable) error {
	if t != nil && (t.Cells() != pf.grid.Len() || t.Regions() != pf.regions.Len()) {
		return fmt.Errorf("route table is %dx%d, want %dx%d",
			t.Cells(), t.Regions(), pf.grid.Len(), pf.regions.Len())
	}
	pf.routes = t
	return nil
}

// InvalidateRoutes drops the route table.
func (pf *Pathfinder) InvalidateRoutes() { pf.routes = nil }

// Precomputed reports whether a route table is installed.
func (pf *Pathfinder) Precomputed() bool { return pf.routes != nil }

// RoutesStale reports whether the grid changed since the table was built.
// Nothing is recomputed automatically.
func (pf *Pathfinder) RoutesStale() bool {
	return pf.routes != nil && pf.routes.GridVersion() != pf.grid.Version()
}

// Fingerprint identifies the current grid layout and tile size.
func (pf *Pathfinder) Fingerprint() Fingerprint {
	return ComputeFingerprint(pf.grid, pf.regions)
}

// SetWalkable marks p walkable. The route table is left untouched.
func (pf *Pathfinder) SetWalkable(p Pos) error { return pf.grid.SetWalkable(p) }

// SetObstructed marks p obstructed. The route table is left untouched.
func (pf *Pathfinder) SetObstructed(p Pos) error { return pf.grid.SetObstructed(p) }

// Toggle flips the walkability of p. The route table is left untouched.
func (pf *Pathfinder) Toggle(p Pos) error { return pf.grid.Toggle(p) }

// FindExactPath runs A* over the whole grid.
func (pf *Pathfinder) FindExactPath(start, target Pos) (Path, error) {
	if err := pf.checkBounds(start, target); err != nil {
		return nil, err
	}
	return pf.search(pf.grid.Index(start), pf.grid.Index(target)).Path, nil
}

// FindPath returns a path from start to target, or an empty path when
// none is known. Errors are returned only for out-of-range coordinates.
func (pf *Pathfinder) FindPath(start, target Pos) (Path, error) {
	res, err := pf.Query(start, target)
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Query routes start→target:
//
//  1. same region: exact search, returned verbatim;
//  2. otherwise the cached route from start into target's region;
//  3. if the route already ends at target it is returned;
//  4. otherwise a last-mile exact search from the route's end to target
//     is appended, sharing the junction cell once.
func (pf *Pathfinder) Query(start, target Pos) (QueryResult, error) {
	if err := pf.checkBounds(start, target); err != nil {
		return QueryResult{}, err
	}

	si := pf.grid.Index(start)
	ti := pf.grid.Index(target)
	targetRegion := pf.regions.RegionOf(ti)

	if pf.regions.RegionOf(si) == targetRegion {
		res := pf.search(si, ti)
		if !res.Found {
			slog.Debug("no path found", "start", start, "target", target)
			return QueryResult{Outcome: OutcomeUnreachable}, nil
		}
		return QueryResult{Path: res.Path, Outcome: OutcomeSameRegion}, nil
	}

	if pf.routes == nil {
		slog.Warn("no precomputed routes", "start", start, "target", target)
		return QueryResult{Outcome: OutcomeMissingRoute}, nil
	}
	route, ok := pf.routes.Lookup(si, targetRegion)
	if !ok {
		slog.Warn("no precomputed route to region", "start", start, "region", targetRegion)
		return QueryResult{Outcome: OutcomeMissingRoute}, nil
	}

	entry := route.Last()
	if entry == target {
		return QueryResult{Path: route.Clone(), Outcome: OutcomeCachedRoute}, nil
	}

	lastMile := pf.search(pf.grid.Index(entry), ti)
	if !lastMile.Found {
		slog.Debug("no path found inside region", "entry", entry, "target", target)
		return QueryResult{Outcome: OutcomeLastMileUnreachable}, nil
	}

	path := make(Path, 0, len(route)+len(lastMile.Path)-1)
	path = append(path, route...)
	path = append(path, lastMile.Path[1:]...)
	return QueryResult{Path: path, Outcome: OutcomeStitched}, nil
}

func (pf *Pathfinder) search(start, target int) Result {
	sc := pf.scratch.Get().(*SearchContext)
	defer pf.scratch.Put(sc)
	return Search(pf.grid, start, target, sc)
}

func (pf *Pathfinder) checkBounds(start, target Pos) error {
	if !pf.grid.InBounds(start) {
		return fmt.Errorf("%w: start %v", ErrInvalidCoordinate, start)
	}
	if !pf.grid.InBounds(target) {
		return fmt.Errorf("%w: target %v", ErrInvalidCoordinate, target)
	}
	return nil
}

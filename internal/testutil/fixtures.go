// Package testutil holds fixtures shared by the tests of packages built on
// top of geo.
package testutil

import (
	"context"
	"testing"

	"github.com/udisondev/navgrid/internal/geo"
)

// OpenPathfinder returns a Pathfinder over a fully walkable w×h grid with
// square tiles, without routes.
func OpenPathfinder(tb testing.TB, w, h int, tile float64) *geo.Pathfinder {
	tb.Helper()
	g, err := geo.NewGrid(w, h)
	if err != nil {
		tb.Fatalf("NewGrid(%d, %d): %v", w, h, err)
	}
	pf, err := geo.New(g, geo.WithTileSize(tile, tile))
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	return pf
}

// Obstruct marks every cell in cells obstructed.
func Obstruct(tb testing.TB, pf *geo.Pathfinder, cells ...geo.Pos) {
	tb.Helper()
	for _, p := range cells {
		if err := pf.SetObstructed(p); err != nil {
			tb.Fatalf("SetObstructed(%v): %v", p, err)
		}
	}
}

// VerticalWall returns the cells (x, y) for y in [fromY, toY).
func VerticalWall(x, fromY, toY int) []geo.Pos {
	cells := make([]geo.Pos, 0, toY-fromY)
	for y := fromY; y < toY; y++ {
		cells = append(cells, geo.Pos{X: x, Y: y})
	}
	return cells
}

// Precompute builds the route table of pf with workers goroutines, or
// sequentially when workers <= 1.
func Precompute(tb testing.TB, pf *geo.Pathfinder, workers int) geo.PrecomputeStats {
	tb.Helper()
	var opts []geo.PrecomputeOption
	if workers > 1 {
		opts = append(opts, geo.WithParallel(workers))
	}
	stats, err := pf.Precompute(context.Background(), opts...)
	if err != nil {
		tb.Fatalf("Precompute: %v", err)
	}
	return stats
}

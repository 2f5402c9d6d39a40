package geo

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignRegions(t *testing.T) {
	tests := []struct {
		name             string
		regions, workers int
		want             [][]int
	}{
		{"stride", 10, 4, [][]int{{0, 4, 8}, {1, 5, 9}, {2, 6}, {3, 7}}},
		{"more workers than regions", 2, 4, [][]int{{0}, {1}, nil, nil}},
		{"single worker", 3, 1, [][]int{{0, 1, 2}}},
		{"zero workers", 3, 0, [][]int{{0, 1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignRegions(tt.regions, tt.workers)
			assert.Equal(t, tt.want, got)

			owner := make(map[int]int)
			for w, rs := range got {
				for _, r := range rs {
					_, dup := owner[r]
					assert.False(t, dup, "region %d owned twice", r)
					owner[r] = w
				}
			}
			assert.Len(t, owner, tt.regions)
		})
	}
}

func newOpenPathfinder(t *testing.T, w, h int, tile float64) *Pathfinder {
	t.Helper()
	g, err := NewGrid(w, h)
	require.NoError(t, err)
	pf, err := New(g, WithTileSize(tile, tile))
	require.NoError(t, err)
	return pf
}

func TestPrecomputeSequential(t *testing.T) {
	pf := newOpenPathfinder(t, 10, 10, 5)

	stats, err := pf.Precompute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, stats.Cells)
	assert.Equal(t, 4, stats.Regions)
	assert.Equal(t, 1, stats.Workers)
	// Every cell reaches the 3 foreign regions on an open grid.
	assert.Equal(t, 300, stats.Routes)
	assert.Equal(t, 100*3*25, stats.Searches)
	assert.True(t, pf.Precomputed())
	assert.False(t, pf.RoutesStale())

	g := pf.Grid()
	route, ok := pf.Routes().Lookup(g.Index(Pos{0, 0}), 3)
	require.True(t, ok)
	assert.Equal(t, Pos{0, 0}, route[0])
	assert.Equal(t, Pos{5, 5}, route.Last(), "closest entry by waypoint count")
	assert.Len(t, route, 6)

	_, ok = pf.Routes().Lookup(g.Index(Pos{0, 0}), 0)
	assert.False(t, ok, "no route into own region")
}

func TestPrecomputeSkipsObstructedAndUnreachable(t *testing.T) {
	pf := newOpenPathfinder(t, 10, 10, 5)
	g := pf.Grid()
	// Seal region 3 (x>=5, y>=5) behind a wall.
	for i := 4; i < 10; i++ {
		require.NoError(t, g.SetObstructed(Pos{4, i}))
		require.NoError(t, g.SetObstructed(Pos{i, 4}))
	}

	_, err := pf.Precompute(context.Background())
	require.NoError(t, err)

	_, ok := pf.Routes().Lookup(g.Index(Pos{0, 0}), 3)
	assert.False(t, ok)
	_, ok = pf.Routes().Lookup(g.Index(Pos{0, 0}), 1)
	assert.True(t, ok)
	_, ok = pf.Routes().Lookup(g.Index(Pos{4, 4}), 1)
	assert.False(t, ok, "obstructed cells originate nothing")
}

func TestPrecomputeParallelMatchesSequential(t *testing.T) {
	for seed := uint64(1); seed <= 3; seed++ {
		rng := rand.New(rand.NewPCG(seed, 5))
		g, err := NewRandomGrid(14, 13, 25, rng)
		require.NoError(t, err)

		seq, err := New(g, WithTileSize(5, 5))
		require.NoError(t, err)
		par, err := New(g, WithTileSize(5, 5))
		require.NoError(t, err)

		seqStats, err := seq.Precompute(context.Background())
		require.NoError(t, err)
		parStats, err := par.Precompute(context.Background(), WithParallel(3))
		require.NoError(t, err)

		assert.Equal(t, seqStats.Routes, parStats.Routes)
		assert.Equal(t, seqStats.Searches, parStats.Searches)
		assert.Equal(t, 3, parStats.Workers)

		for cell := range g.Len() {
			for r := range seq.Regions().Len() {
				a, okA := seq.Routes().Lookup(cell, r)
				b, okB := par.Routes().Lookup(cell, r)
				require.Equal(t, okA, okB, "seed %d cell %v region %d", seed, g.Pos(cell), r)
				assert.Len(t, b, len(a))
			}
		}
	}
}

func TestPrecomputeWorkersCappedAtRegions(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"huge", 1 << 50, 4},
		{"more than regions", 8, 4},
		{"fewer than regions", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := newOpenPathfinder(t, 4, 4, 2)
			stats, err := pf.Precompute(context.Background(), WithParallel(tt.workers))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats.Workers)
			assert.Equal(t, 16*3, stats.Routes)
		})
	}
}

func TestPrecomputeCancelled(t *testing.T) {
	pf := newOpenPathfinder(t, 10, 10, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pf.Precompute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, pf.Routes())

	_, err = pf.Precompute(ctx, WithParallel(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, pf.Routes())
}

func TestPrecomputeProgress(t *testing.T) {
	pf := newOpenPathfinder(t, 10, 10, 5)

	var (
		mu    sync.Mutex
		calls [][2]int
	)
	record := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}

	_, err := pf.Precompute(context.Background(), WithParallel(2), WithProgress(record))
	require.NoError(t, err)
	require.Len(t, calls, 4)
	assert.Contains(t, calls, [2]int{4, 4})

	calls = nil
	_, err = pf.Precompute(context.Background(), WithProgress(record))
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, [2]int{100, 100}, calls[len(calls)-1])
}

func TestPrecomputeProgressObstructedRowEnds(t *testing.T) {
	pf := newOpenPathfinder(t, 10, 10, 5)
	for y := range 10 {
		require.NoError(t, pf.SetObstructed(Pos{9, y}))
	}

	var calls [][2]int
	_, err := pf.Precompute(context.Background(), WithProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))
	require.NoError(t, err)

	want := make([][2]int, 0, 11)
	for row := 1; row <= 10; row++ {
		want = append(want, [2]int{row * 10, 100})
	}
	want = append(want, [2]int{100, 100})
	assert.Equal(t, want, calls)
}

func BenchmarkPrecompute(b *testing.B) {
	rng := rand.New(rand.NewPCG(2, 2))
	g, err := NewRandomGrid(18, 18, 20, rng)
	if err != nil {
		b.Fatalf("NewRandomGrid: %v", err)
	}
	pf, err := New(g)
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	b.Run("sequential", func(b *testing.B) {
		for b.Loop() {
			if _, err := pf.Precompute(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("parallel", func(b *testing.B) {
		for b.Loop() {
			if _, err := pf.Precompute(context.Background(), WithParallel(DefaultWorkers)); err != nil {
				b.Fatal(err)
			}
		}
	})
}

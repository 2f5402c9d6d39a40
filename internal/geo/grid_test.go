package geo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridEmpty(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 5},
		{"zero height", 5, 0},
		{"negative", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.width, tt.height)
			assert.ErrorIs(t, err, ErrEmptyGrid)
		})
	}
}

func TestNewGridTooLarge(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"product overflows int", 1 << 32, 1 << 32},
		{"above cell limit", 100_000_000_000, 100_000_000},
		{"one past limit", MaxCells, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.width, tt.height)
			assert.ErrorIs(t, err, ErrGridTooLarge)
			assert.Nil(t, g)
		})
	}
}

func TestGridNeighbors(t *testing.T) {
	g, err := NewGrid(3, 3)
	require.NoError(t, err)

	tests := []struct {
		name string
		pos  Pos
		want int
	}{
		{"corner", Pos{0, 0}, 3},
		{"edge", Pos{1, 0}, 5},
		{"center", Pos{1, 1}, 8},
		{"far corner", Pos{2, 2}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb := g.Neighbors(g.Index(tt.pos))
			assert.Len(t, nb, tt.want)
			for _, n := range nb {
				assert.True(t, Adjacent(tt.pos, g.Pos(int(n))), "neighbour %v of %v", g.Pos(int(n)), tt.pos)
			}
		})
	}

	single, err := NewGrid(1, 1)
	require.NoError(t, err)
	assert.Empty(t, single.Neighbors(0))
}

func TestGridIndexRoundTrip(t *testing.T) {
	g, err := NewGrid(7, 4)
	require.NoError(t, err)

	for i := range g.Len() {
		p := g.Pos(i)
		assert.True(t, g.InBounds(p))
		assert.Equal(t, i, g.Index(p))
	}
	assert.Equal(t, 3+2*7, g.Index(Pos{X: 3, Y: 2}))
}

func TestGridMutations(t *testing.T) {
	g, err := NewGrid(4, 4)
	require.NoError(t, err)
	p := Pos{X: 2, Y: 1}

	assert.True(t, g.IsWalkable(p))
	v0 := g.Version()

	require.NoError(t, g.SetWalkable(p))
	assert.Equal(t, v0, g.Version(), "no-op change must not bump version")

	require.NoError(t, g.SetObstructed(p))
	assert.False(t, g.IsWalkable(p))
	assert.Equal(t, v0+1, g.Version())

	require.NoError(t, g.Toggle(p))
	assert.True(t, g.IsWalkable(p))
	assert.Equal(t, v0+2, g.Version())

	s, err := g.State(p)
	require.NoError(t, err)
	assert.Equal(t, Walkable, s)
	assert.Equal(t, g.Len(), g.WalkableCount())
}

func TestGridMutationsOutOfBounds(t *testing.T) {
	g, err := NewGrid(4, 4)
	require.NoError(t, err)

	for _, p := range []Pos{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		assert.ErrorIs(t, g.SetWalkable(p), ErrInvalidCoordinate)
		assert.ErrorIs(t, g.SetObstructed(p), ErrInvalidCoordinate)
		assert.ErrorIs(t, g.Toggle(p), ErrInvalidCoordinate)
		_, err := g.State(p)
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
		assert.False(t, g.IsWalkable(p))
	}
}

func TestNewRandomGrid(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	open, err := NewRandomGrid(20, 20, 0, rng)
	require.NoError(t, err)
	assert.Equal(t, 400, open.WalkableCount())

	full, err := NewRandomGrid(20, 20, 100, rng)
	require.NoError(t, err)
	assert.Equal(t, 0, full.WalkableCount())

	clamped, err := NewRandomGrid(5, 5, 250, rng)
	require.NoError(t, err)
	assert.Equal(t, 0, clamped.WalkableCount())

	mixed, err := NewRandomGrid(50, 50, 30, rng)
	require.NoError(t, err)
	frac := float64(mixed.WalkableCount()) / float64(mixed.Len())
	assert.InDelta(t, 0.7, frac, 0.08)
}

func TestGridClone(t *testing.T) {
	g, err := NewGrid(3, 3)
	require.NoError(t, err)
	require.NoError(t, g.SetObstructed(Pos{1, 1}))

	c := g.Clone()
	require.NoError(t, c.SetWalkable(Pos{1, 1}))

	assert.False(t, g.IsWalkable(Pos{1, 1}))
	assert.True(t, c.IsWalkable(Pos{1, 1}))
	assert.Equal(t, g.Neighbors(4), c.Neighbors(4))
}

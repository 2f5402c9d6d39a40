package geo

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
)

// CellState is the walkability of a single cell.
type CellState uint8

const (
	Walkable CellState = iota
	Obstructed
)

func (s CellState) String() string {
	if s == Walkable {
		return "walkable"
	}
	return "obstructed"
}

// Grid is a fixed-size 2D array of cells with cached 8-neighbour lists.
// Topology never changes after construction; only cell states do.
// Mutations are not synchronized: callers must not toggle cells while a
// precompute or query is in flight.
type Grid struct {
	width, height int
	states        []CellState
	neighbors     [][]int32

	// version is bumped on every effective state change.
	version atomic.Uint64
}

// NewGrid creates a width×height grid with every cell walkable.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyGrid, width, height)
	}
	if height > MaxCells/width {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrGridTooLarge, width, height, MaxCells)
	}
	g := &Grid{
		width:  width,
		height: height,
		states: make([]CellState, width*height),
	}
	g.buildNeighbors()
	return g, nil
}

// NewRandomGrid creates a grid where each cell is independently obstructed
// with probability obstaclePercentage/100. The percentage is clamped to [0,100].
func NewRandomGrid(width, height int, obstaclePercentage float64, rng *rand.Rand) (*Grid, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	obstaclePercentage = min(max(obstaclePercentage, 0), 100)
	if obstaclePercentage == 0 {
		return g, nil
	}
	for i := range g.states {
		if rng.Float64()*100 < obstaclePercentage {
			g.states[i] = Obstructed
		}
	}
	return g, nil
}

// buildNeighbors caches up to 8 in-bounds neighbours per cell (Chebyshev radius 1).
func (g *Grid) buildNeighbors() {
	g.neighbors = make([][]int32, len(g.states))
	for i := range g.states {
		x, y := i%g.width, i/g.width
		list := make([]int32, 0, 8)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= g.width || ny >= g.height {
					continue
				}
				list = append(list, int32(nx+ny*g.width))
			}
		}
		g.neighbors[i] = list
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.states) }

// Version returns a counter incremented on every walkability change.
func (g *Grid) Version() uint64 { return g.version.Load() }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Index converts a position to its linear index: x + y*width.
// p must be in bounds.
func (g *Grid) Index(p Pos) int {
	return p.X + p.Y*g.width
}

// Pos converts a linear index back to a position.
func (g *Grid) Pos(index int) Pos {
	return Pos{X: index % g.width, Y: index / g.width}
}

// Neighbors returns the cached neighbour indices of a cell.
// The returned slice is shared and must not be modified.
func (g *Grid) Neighbors(index int) []int32 {
	return g.neighbors[index]
}

// State returns the state of the cell at p.
func (g *Grid) State(p Pos) (CellState, error) {
	if !g.InBounds(p) {
		return Obstructed, fmt.Errorf("%w: %v", ErrInvalidCoordinate, p)
	}
	return g.states[g.Index(p)], nil
}

// IsWalkable reports whether p is in bounds and walkable.
func (g *Grid) IsWalkable(p Pos) bool {
	return g.InBounds(p) && g.states[g.Index(p)] == Walkable
}

func (g *Grid) walkable(index int) bool {
	return g.states[index] == Walkable
}

// WalkableCount returns the number of walkable cells.
func (g *Grid) WalkableCount() int {
	n := 0
	for _, s := range g.states {
		if s == Walkable {
			n++
		}
	}
	return n
}

// SetWalkable marks p walkable. Precomputed routes are not updated.
func (g *Grid) SetWalkable(p Pos) error {
	return g.set(p, Walkable)
}

// SetObstructed marks p obstructed. Precomputed routes are not updated.
func (g *Grid) SetObstructed(p Pos) error {
	return g.set(p, Obstructed)
}

// Toggle flips the walkability of p. Precomputed routes are not updated.
func (g *Grid) Toggle(p Pos) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, p)
	}
	if g.states[g.Index(p)] == Walkable {
		return g.set(p, Obstructed)
	}
	return g.set(p, Walkable)
}

func (g *Grid) set(p Pos, s CellState) error {
	if !g.InBounds(p) {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, p)
	}
	i := g.Index(p)
	if g.states[i] != s {
		g.states[i] = s
		g.version.Add(1)
	}
	return nil
}

// Clone returns a deep copy of the cell states sharing the immutable
// neighbour cache.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		width:     g.width,
		height:    g.height,
		states:    make([]CellState, len(g.states)),
		neighbors: g.neighbors,
	}
	copy(c.states, g.states)
	c.version.Store(g.version.Load())
	return c
}

package geo

import (
	"fmt"
	"math"
)

// Pos is a cell coordinate on the grid.
type Pos struct {
	X, Y int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Distance returns the Euclidean distance between two cells.
func Distance(a, b Pos) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Adjacent reports whether a and b are distinct 8-connected neighbours.
func Adjacent(a, b Pos) bool {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	return dx <= 1 && dy <= 1 && dx+dy > 0
}

// Chebyshev returns max(|dx|, |dy|), the minimum number of moves between a and b.
func Chebyshev(a, b Pos) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

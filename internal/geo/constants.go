package geo

import "math"

// Region partition defaults.
const (
	DefaultTileWidth  = 9.0
	DefaultTileHeight = 9.0
)

// MaxCells bounds width*height; cell and region ids are int32.
const MaxCells = math.MaxInt32

// Precompute defaults.
const (
	DefaultWorkers = 4
)

// A* edge weights on the 8-connected grid.
const (
	WeightOrthogonal = 1.0
	WeightDiagonal   = math.Sqrt2
)

// Snapshot format characters.
const (
	SnapshotWalkable   byte = 'w'
	SnapshotObstructed byte = 'o'
)

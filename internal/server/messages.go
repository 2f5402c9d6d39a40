package server

import "github.com/udisondev/navgrid/internal/geo"

// Request types.
const (
	TypeFindPath      = "findPath"
	TypeSetWalkable   = "setWalkable"
	TypeSetObstructed = "setObstructed"
	TypeToggle        = "toggle"
	TypePrecompute    = "precompute"
)

// Response types.
const (
	TypePath  = "path"
	TypeAck   = "ack"
	TypeError = "error"
)

// OutcomeExact reports a path found by a whole-grid search.
const OutcomeExact = "exact"

// Point is a cell on the wire: [x, y].
type Point [2]int

func (p Point) pos() geo.Pos { return geo.Pos{X: p[0], Y: p[1]} }

func toPoints(path geo.Path) []Point {
	out := make([]Point, len(path))
	for i, p := range path {
		out[i] = Point{p.X, p.Y}
	}
	return out
}

type request struct {
	Type   string `json:"type"`
	ID     uint64 `json:"id"`
	Start  *Point `json:"start,omitempty"`
	Target *Point `json:"target,omitempty"`
	Pos    *Point `json:"pos,omitempty"`
	// Exact bypasses the route table and runs A* over the whole grid.
	Exact   bool `json:"exact,omitempty"`
	Workers int  `json:"workers,omitempty"`
}

type pathResponse struct {
	Type    string  `json:"type"`
	ID      uint64  `json:"id"`
	Outcome string  `json:"outcome"`
	Path    []Point `json:"path"`
	Cost    float64 `json:"cost"`
	Stale   bool    `json:"stale,omitempty"`
}

type ackResponse struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id"`
	Stale bool   `json:"stale"`

	// precompute only
	Routes    int   `json:"routes,omitempty"`
	Searches  int   `json:"searches,omitempty"`
	ElapsedMS int64 `json:"elapsedMs,omitempty"`
	Saved     bool  `json:"saved,omitempty"`
}

type errorResponse struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id"`
	Error string `json:"error"`
}

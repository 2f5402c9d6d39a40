package geo

import (
	"container/heap"
	"math"
)

// Result is the outcome of a single exact search.
type Result struct {
	Path     Path
	Cost     float64
	Expanded int
	Found    bool
}

// SearchContext holds the mutable scratch state of one A* search.
// It is reset at the start of every Search call and must not be shared
// between goroutines; each worker owns its own context.
type SearchContext struct {
	g      []float64 // best known cost from start
	h      []float64 // heuristic estimate to target
	parent []int32
	closed []bool
	open   nodeHeap
}

// NewSearchContext allocates scratch state for grids of n cells.
func NewSearchContext(n int) *SearchContext {
	return &SearchContext{
		g:      make([]float64, n),
		h:      make([]float64, n),
		parent: make([]int32, n),
		closed: make([]bool, n),
		open:   make(nodeHeap, 0, 64),
	}
}

func (sc *SearchContext) reset(n int) {
	if len(sc.g) != n {
		*sc = *NewSearchContext(n)
	}
	inf := math.Inf(1)
	for i := range sc.g {
		sc.g[i] = inf
		sc.h[i] = inf
		sc.parent[i] = -1
		sc.closed[i] = false
	}
	clear(sc.open)
	sc.open = sc.open[:0]
}

// Search runs A* from start to target (linear cell indices) over the
// 8-connected grid. Edge cost and heuristic are both Euclidean, so the
// returned path has optimal cost. Obstructed cells are never expanded;
// an obstructed start or target yields Found=false.
// The grid is only read; all writes go to sc.
func Search(g *Grid, start, target int, sc *SearchContext) Result {
	sc.reset(g.Len())

	if !g.walkable(start) || !g.walkable(target) {
		return Result{}
	}

	targetPos := g.Pos(target)
	sc.g[start] = 0
	sc.h[start] = Distance(g.Pos(start), targetPos)
	heap.Push(&sc.open, &searchNode{cell: int32(start), f: sc.h[start]})

	expanded := 0
	for sc.open.Len() > 0 {
		current := heap.Pop(&sc.open).(*searchNode)
		cur := int(current.cell)

		// Lazy decrease-key: stale duplicates are skipped.
		if sc.closed[cur] {
			continue
		}
		sc.closed[cur] = true
		expanded++

		if cur == target {
			path := reconstructPath(g, sc.parent, cur)
			return Result{
				Path:     path,
				Cost:     sc.g[cur],
				Expanded: expanded,
				Found:    true,
			}
		}

		curPos := g.Pos(cur)
		for _, nb := range g.neighbors[cur] {
			n := int(nb)
			if sc.closed[n] || !g.walkable(n) {
				continue
			}
			nPos := g.Pos(n)
			weight := WeightOrthogonal
			if nPos.X != curPos.X && nPos.Y != curPos.Y {
				weight = WeightDiagonal
			}

			tentativeG := sc.g[cur] + weight
			if tentativeG >= sc.g[n] {
				continue
			}
			sc.g[n] = tentativeG
			sc.h[n] = heuristic(nPos, targetPos)
			sc.parent[n] = int32(cur)
			heap.Push(&sc.open, &searchNode{cell: nb, f: tentativeG + sc.h[n]})
		}
	}

	return Result{Expanded: expanded}
}

// heuristic is the straight-line distance; admissible and consistent on
// an 8-connected grid with Euclidean edge weights.
func heuristic(from, to Pos) float64 {
	return Distance(from, to)
}

// reconstructPath walks parent pointers back from cell and reverses.
func reconstructPath(g *Grid, parent []int32, cell int) Path {
	path := make(Path, 0, 32)
	for c := int32(cell); c != -1; c = parent[c] {
		path = append(path, g.Pos(int(c)))
	}

	// Reverse (built backward from target)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// searchNode is an open-set entry.
type searchNode struct {
	cell  int32
	f     float64 // g + h at push time
	index int     // heap index
}

// nodeHeap implements container/heap for the A* open set (min-heap by f).
// Ties are broken by heap order, which is not a defined total order.
type nodeHeap []*searchNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)        { n := x.(*searchNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}

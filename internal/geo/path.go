package geo

// Path is an ordered list of cells from start to target, both inclusive.
// An empty path means no path exists.
type Path []Pos

// Empty reports whether the path has no waypoints.
func (p Path) Empty() bool { return len(p) == 0 }

// Last returns the final waypoint. It panics on an empty path.
func (p Path) Last() Pos { return p[len(p)-1] }

// Cost returns the summed Euclidean edge cost along the path.
func (p Path) Cost() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += Distance(p[i-1], p[i])
	}
	return total
}

// Clone returns a copy that can be appended to without aliasing p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	c := make(Path, len(p), len(p)+8)
	copy(c, p)
	return c
}

// Valid reports whether every waypoint is walkable on g and every
// consecutive pair is an 8-connected adjacency.
func (p Path) Valid(g *Grid) bool {
	for i, pos := range p {
		if !g.IsWalkable(pos) {
			return false
		}
		if i > 0 && !Adjacent(p[i-1], pos) {
			return false
		}
	}
	return true
}

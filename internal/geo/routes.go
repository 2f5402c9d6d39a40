package geo

// RouteTable caches, for each cell and each foreign region, the shortest
// known path from the cell into that region. A nil entry means no route.
//
// Rows are written only during precomputation, each row by exactly one
// worker, and are read-only afterwards. Stored paths must not be mutated.
type RouteTable struct {
	rows        [][]Path // cell -> region -> path
	numRegions  int
	gridVersion uint64
}

// NewRouteTable allocates an empty table for cells×regions.
func NewRouteTable(cells, regions int) *RouteTable {
	return &RouteTable{
		rows:       make([][]Path, cells),
		numRegions: regions,
	}
}

// Lookup returns the cached route from cell into region.
func (t *RouteTable) Lookup(cell, region int) (Path, bool) {
	row := t.rows[cell]
	if row == nil || region < 0 || region >= len(row) {
		return nil, false
	}
	p := row[region]
	return p, len(p) > 0
}

// Set stores a route. Rows are allocated lazily so obstructed cells cost nothing.
func (t *RouteTable) Set(cell, region int, p Path) {
	if t.rows[cell] == nil {
		t.rows[cell] = make([]Path, t.numRegions)
	}
	t.rows[cell][region] = p
}

// Len returns the number of stored routes.
func (t *RouteTable) Len() int {
	n := 0
	for _, row := range t.rows {
		for _, p := range row {
			if len(p) > 0 {
				n++
			}
		}
	}
	return n
}

// Cells returns the number of rows.
func (t *RouteTable) Cells() int { return len(t.rows) }

// Regions returns the number of region columns.
func (t *RouteTable) Regions() int { return t.numRegions }

// GridVersion returns the grid version the table was built against.
func (t *RouteTable) GridVersion() uint64 { return t.gridVersion }

// SetGridVersion records the grid version the table matches.
func (t *RouteTable) SetGridVersion(v uint64) { t.gridVersion = v }

// ForEach calls fn for every stored route in (cell, region) order until fn returns false.
func (t *RouteTable) ForEach(fn func(cell, region int, p Path) bool) {
	for cell, row := range t.rows {
		for region, p := range row {
			if len(p) == 0 {
				continue
			}
			if !fn(cell, region, p) {
				return
			}
		}
	}
}

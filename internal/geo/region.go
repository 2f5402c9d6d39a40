package geo

import (
	"fmt"
	"math"
)

// Partition divides a grid into rectangular tiles ("regions").
// Region ids are dense, row-major over a RegionsX×RegionsY tile layout.
// Every cell belongs to exactly one region; a region may be empty when
// tile sizes are fractional.
type Partition struct {
	tileW, tileH       float64
	regionsX, regionsY int

	regionOf []int32   // cell index -> region id
	members  [][]int32 // region id -> cell indices, ascending
}

// NewPartition assigns every cell of g to a tile of tileW×tileH cells.
func NewPartition(g *Grid, tileW, tileH float64) (*Partition, error) {
	if !validTileSize(tileW) || !validTileSize(tileH) {
		return nil, fmt.Errorf("%w: %gx%g", ErrBadTileSize, tileW, tileH)
	}

	p := &Partition{
		tileW:    tileW,
		tileH:    tileH,
		regionsX: int(math.Ceil(float64(g.Width()) / tileW)),
		regionsY: int(math.Ceil(float64(g.Height()) / tileH)),
		regionOf: make([]int32, g.Len()),
	}
	p.members = make([][]int32, p.regionsX*p.regionsY)

	for y := 0; y < g.Height(); y++ {
		ry := int(math.Floor(float64(y) / tileH))
		for x := 0; x < g.Width(); x++ {
			rx := int(math.Floor(float64(x) / tileW))
			id := rx + ry*p.regionsX
			idx := g.Index(Pos{X: x, Y: y})
			p.regionOf[idx] = int32(id)
			p.members[id] = append(p.members[id], int32(idx))
		}
	}
	return p, nil
}

// validTileSize reports whether v is a finite tile dimension of at least one cell.
func validTileSize(v float64) bool {
	return v >= 1 && !math.IsInf(v, 0)
}

// Len returns the number of regions.
func (p *Partition) Len() int { return len(p.members) }

// RegionsX returns the number of tile columns.
func (p *Partition) RegionsX() int { return p.regionsX }

// RegionsY returns the number of tile rows.
func (p *Partition) RegionsY() int { return p.regionsY }

// TileSize returns the configured tile dimensions.
func (p *Partition) TileSize() (w, h float64) { return p.tileW, p.tileH }

// RegionOf returns the region id of a cell index.
func (p *Partition) RegionOf(cell int) int { return int(p.regionOf[cell]) }

// Members returns the cell indices of a region.
// The returned slice is shared and must not be modified.
func (p *Partition) Members(region int) []int32 { return p.members[region] }

package geo

import "errors"

var (
	// ErrEmptyGrid indicates a grid with zero cells was requested.
	ErrEmptyGrid = errors.New("geo: grid must have at least one cell")
	// ErrMalformedSnapshot indicates an unreadable or truncated snapshot.
	ErrMalformedSnapshot = errors.New("geo: malformed grid snapshot")
	// ErrGridTooLarge indicates width*height above MaxCells.
	ErrGridTooLarge = errors.New("geo: grid too large")

	// ErrInvalidCoordinate indicates a position outside [0,width)×[0,height).
	ErrInvalidCoordinate = errors.New("geo: coordinate out of bounds")
	// ErrBadTileSize indicates a region tile dimension below one cell.
	ErrBadTileSize = errors.New("geo: tile dimensions must be >= 1")
)

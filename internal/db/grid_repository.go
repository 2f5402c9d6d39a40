package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/navgrid/internal/geo"
)

// GridRecord is a stored grid layout together with the tile size its
// routes were computed for.
type GridRecord struct {
	ID          int64
	Fingerprint geo.Fingerprint
	Width       int
	Height      int
	TileWidth   float64
	TileHeight  float64
	Cells       string // row-major snapshot characters
	CreatedAt   time.Time
}

// NewGridRecord captures the current layout of pf.
func NewGridRecord(pf *geo.Pathfinder) GridRecord {
	g := pf.Grid()
	tw, th := pf.Regions().TileSize()

	var sb strings.Builder
	sb.Grow(g.Len())
	for i := range g.Len() {
		if g.IsWalkable(g.Pos(i)) {
			sb.WriteByte(geo.SnapshotWalkable)
		} else {
			sb.WriteByte(geo.SnapshotObstructed)
		}
	}

	return GridRecord{
		Fingerprint: pf.Fingerprint(),
		Width:       g.Width(),
		Height:      g.Height(),
		TileWidth:   tw,
		TileHeight:  th,
		Cells:       sb.String(),
	}
}

// Grid rebuilds the stored layout.
func (r GridRecord) Grid() (*geo.Grid, error) {
	snapshot := fmt.Sprintf("%d\n%d\n%s", r.Width, r.Height, r.Cells)
	g, err := geo.ReadSnapshot(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("decoding grid %d: %w", r.ID, err)
	}
	return g, nil
}

// GridRepository persists grid layouts keyed by fingerprint.
type GridRepository struct {
	pool *pgxpool.Pool
}

// NewGridRepository creates a new GridRepository.
func NewGridRepository(pool *pgxpool.Pool) *GridRepository {
	return &GridRepository{pool: pool}
}

// SaveTx inserts rec, or finds the existing row with the same fingerprint,
// and returns its id.
func (r *GridRepository) SaveTx(ctx context.Context, tx pgx.Tx, rec GridRecord) (int64, error) {
	query := `
		INSERT INTO grids (fingerprint, width, height, tile_width, tile_height, cells)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO UPDATE SET fingerprint = EXCLUDED.fingerprint
		RETURNING id
	`
	var id int64
	err := tx.QueryRow(ctx, query,
		rec.Fingerprint[:], rec.Width, rec.Height, rec.TileWidth, rec.TileHeight, rec.Cells,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving grid %dx%d: %w", rec.Width, rec.Height, err)
	}
	return id, nil
}

// FindByFingerprint returns the grid stored under fp.
// Returns nil, nil if there is none.
func (r *GridRepository) FindByFingerprint(ctx context.Context, fp geo.Fingerprint) (*GridRecord, error) {
	query := `
		SELECT id, fingerprint, width, height, tile_width, tile_height, cells, created_at
		FROM grids
		WHERE fingerprint = $1
	`
	rec, err := scanGrid(r.pool.QueryRow(ctx, query, fp[:]))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying grid %x: %w", fp[:8], err)
	}
	return rec, nil
}

// List returns all stored grids, newest first.
func (r *GridRepository) List(ctx context.Context) ([]GridRecord, error) {
	query := `
		SELECT id, fingerprint, width, height, tile_width, tile_height, cells, created_at
		FROM grids
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying grids: %w", err)
	}
	defer rows.Close()

	var result []GridRecord
	for rows.Next() {
		rec, err := scanGrid(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning grid row: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating grid rows: %w", err)
	}
	return result, nil
}

// Delete removes a grid and, by cascade, its routes.
func (r *GridRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM grids WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting grid %d: %w", id, err)
	}
	return nil
}

func scanGrid(row pgx.Row) (*GridRecord, error) {
	var (
		rec GridRecord
		fp  []byte
	)
	if err := row.Scan(&rec.ID, &fp, &rec.Width, &rec.Height,
		&rec.TileWidth, &rec.TileHeight, &rec.Cells, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if len(fp) != geo.FingerprintSize {
		return nil, fmt.Errorf("grid %d: fingerprint has %d bytes", rec.ID, len(fp))
	}
	copy(rec.Fingerprint[:], fp)
	return &rec, nil
}

package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/navgrid/internal/geo"
)

// RouteRepository persists route tables. Waypoints are stored as linear
// cell indices.
type RouteRepository struct {
	pool *pgxpool.Pool
}

// NewRouteRepository creates a new RouteRepository.
func NewRouteRepository(pool *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{pool: pool}
}

// SaveTx replaces all routes of gridID with the contents of table.
func (r *RouteRepository) SaveTx(ctx context.Context, tx pgx.Tx, gridID int64, g *geo.Grid, table *geo.RouteTable) (int, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM routes WHERE grid_id = $1`, gridID); err != nil {
		return 0, fmt.Errorf("deleting old routes for grid %d: %w", gridID, err)
	}

	rows := make([][]any, 0, table.Len())
	table.ForEach(func(cell, region int, p geo.Path) bool {
		waypoints := make([]int32, len(p))
		for i, wp := range p {
			waypoints[i] = int32(g.Index(wp))
		}
		rows = append(rows, []any{gridID, int32(cell), int32(region), waypoints})
		return true
	})
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"routes"},
		[]string{"grid_id", "cell", "region", "waypoints"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting routes for grid %d: %w", gridID, err)
	}

	slog.Debug("saved routes", "gridID", gridID, "count", n)
	return int(n), nil
}

// Load reads the routes of gridID into a table sized for g and regions.
func (r *RouteRepository) Load(ctx context.Context, gridID int64, g *geo.Grid, regions int) (*geo.RouteTable, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cell, region, waypoints FROM routes WHERE grid_id = $1`, gridID)
	if err != nil {
		return nil, fmt.Errorf("querying routes for grid %d: %w", gridID, err)
	}
	defer rows.Close()

	table := geo.NewRouteTable(g.Len(), regions)
	for rows.Next() {
		var (
			cell, region int32
			waypoints    []int32
		)
		if err := rows.Scan(&cell, &region, &waypoints); err != nil {
			return nil, fmt.Errorf("scanning route row: %w", err)
		}
		if int(cell) >= g.Len() || int(region) >= regions || cell < 0 || region < 0 {
			return nil, fmt.Errorf("route (%d, %d) out of range for grid %d", cell, region, gridID)
		}

		p := make(geo.Path, len(waypoints))
		for i, wp := range waypoints {
			if wp < 0 || int(wp) >= g.Len() {
				return nil, fmt.Errorf("route (%d, %d): waypoint %d out of range", cell, region, wp)
			}
			p[i] = g.Pos(int(wp))
		}
		table.Set(int(cell), int(region), p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating route rows: %w", err)
	}
	return table, nil
}

// Count returns the number of routes stored for gridID.
func (r *RouteRepository) Count(ctx context.Context, gridID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM routes WHERE grid_id = $1`, gridID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting routes for grid %d: %w", gridID, err)
	}
	return n, nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/navgrid/internal/geo"
)

var (
	ErrNoRoutes    = errors.New("db: pathfinder has no route table")
	ErrStaleRoutes = errors.New("db: route table is older than the grid")
)

// RouteStore saves and restores precomputed route tables, keyed by the
// fingerprint of the grid layout and tile size they were built for.
type RouteStore struct {
	pool   *pgxpool.Pool
	grids  *GridRepository
	routes *RouteRepository
}

// NewRouteStore creates a new RouteStore.
func NewRouteStore(pool *pgxpool.Pool) *RouteStore {
	return &RouteStore{
		pool:   pool,
		grids:  NewGridRepository(pool),
		routes: NewRouteRepository(pool),
	}
}

// Grids returns the grid repository.
func (s *RouteStore) Grids() *GridRepository { return s.grids }

// Routes returns the route repository.
func (s *RouteStore) Routes() *RouteRepository { return s.routes }

// SaveRoutes stores the grid layout and route table of pf in one
// transaction and returns the grid id.
func (s *RouteStore) SaveRoutes(ctx context.Context, pf *geo.Pathfinder) (int64, error) {
	table := pf.Routes()
	if table == nil {
		return 0, ErrNoRoutes
	}
	if pf.RoutesStale() {
		return 0, ErrStaleRoutes
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "error", err)
		}
	}()

	rec := NewGridRecord(pf)
	gridID, err := s.grids.SaveTx(ctx, tx, rec)
	if err != nil {
		return 0, err
	}
	n, err := s.routes.SaveTx(ctx, tx, gridID, pf.Grid(), table)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing routes for grid %d: %w", gridID, err)
	}

	slog.Info("routes saved", "gridID", gridID, "routes", n, "fingerprint", fmt.Sprintf("%x", rec.Fingerprint[:8]))
	return gridID, nil
}

// LoadRoutes installs the stored route table matching the current layout
// of pf. It reports false if nothing matches.
func (s *RouteStore) LoadRoutes(ctx context.Context, pf *geo.Pathfinder) (bool, error) {
	fp := pf.Fingerprint()
	rec, err := s.grids.FindByFingerprint(ctx, fp)
	if err != nil {
		return false, err
	}
	if rec == nil {
		slog.Debug("no stored routes", "fingerprint", fmt.Sprintf("%x", fp[:8]))
		return false, nil
	}

	table, err := s.routes.Load(ctx, rec.ID, pf.Grid(), pf.Regions().Len())
	if err != nil {
		return false, err
	}
	table.SetGridVersion(pf.Grid().Version())
	if err := pf.SetRoutes(table); err != nil {
		return false, fmt.Errorf("installing routes of grid %d: %w", rec.ID, err)
	}

	slog.Info("routes loaded", "gridID", rec.ID, "routes", table.Len())
	return true, nil
}

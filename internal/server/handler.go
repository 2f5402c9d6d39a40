package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/navgrid/internal/geo"
)

var errMissingField = errors.New("missing field")

// RouteSaver persists a freshly precomputed route table.
type RouteSaver interface {
	SaveRoutes(ctx context.Context, pf *geo.Pathfinder) (int64, error)
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Workers is used for precompute requests that do not name a count.
	// 1 selects sequential precompute.
	Workers int
	// Saver, if set, receives the table after every successful precompute.
	Saver        RouteSaver
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handler serves the websocket protocol on top of a Pathfinder. Queries
// share a read lock; mutations and precompute take the write lock.
type Handler struct {
	mu  sync.RWMutex
	pf  *geo.Pathfinder
	cfg HandlerConfig

	upgrader websocket.Upgrader
}

// NewHandler creates a Handler for pf.
func NewHandler(pf *geo.Pathfinder, cfg HandlerConfig) *Handler {
	if cfg.Workers <= 0 {
		cfg.Workers = geo.DefaultWorkers
	}
	return &Handler{
		pf:  pf,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the connection and processes requests until the peer
// disconnects. Responses are written in request order.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			conn.Close()
		case <-done:
		}
	}()

	remote := conn.RemoteAddr().String()
	slog.Debug("client connected", "remote", remote)

	for {
		if h.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("client read failed", "remote", remote, "error", err)
			}
			return
		}

		var req request
		var resp any
		if err := json.Unmarshal(payload, &req); err != nil {
			resp = errorResponse{Type: TypeError, Error: fmt.Sprintf("malformed message: %v", err)}
		} else {
			resp = h.dispatch(r.Context(), req)
		}

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error("marshalling response", "remote", remote, "error", err)
			return
		}
		if h.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("client write failed", "remote", remote, "error", err)
			return
		}
	}
}

// dispatch executes one request and returns its response message.
func (h *Handler) dispatch(ctx context.Context, req request) any {
	var (
		resp any
		err  error
	)
	switch req.Type {
	case TypeFindPath:
		resp, err = h.findPath(req)
	case TypeSetWalkable:
		resp, err = h.mutate(req, h.pf.SetWalkable)
	case TypeSetObstructed:
		resp, err = h.mutate(req, h.pf.SetObstructed)
	case TypeToggle:
		resp, err = h.mutate(req, h.pf.Toggle)
	case TypePrecompute:
		resp, err = h.precompute(ctx, req)
	default:
		err = fmt.Errorf("unknown message type %q", req.Type)
	}
	if err != nil {
		return errorResponse{Type: TypeError, ID: req.ID, Error: err.Error()}
	}
	return resp
}

func (h *Handler) findPath(req request) (any, error) {
	if req.Start == nil || req.Target == nil {
		return nil, fmt.Errorf("%w: start and target are required", errMissingField)
	}
	start, target := req.Start.pos(), req.Target.pos()

	h.mu.RLock()
	defer h.mu.RUnlock()

	var (
		path    geo.Path
		outcome string
	)
	if req.Exact {
		p, err := h.pf.FindExactPath(start, target)
		if err != nil {
			return nil, err
		}
		path, outcome = p, OutcomeExact
		if p.Empty() {
			outcome = geo.OutcomeUnreachable.String()
		}
	} else {
		res, err := h.pf.Query(start, target)
		if err != nil {
			return nil, err
		}
		path, outcome = res.Path, res.Outcome.String()
	}

	return pathResponse{
		Type:    TypePath,
		ID:      req.ID,
		Outcome: outcome,
		Path:    toPoints(path),
		Cost:    path.Cost(),
		Stale:   h.pf.RoutesStale(),
	}, nil
}

func (h *Handler) mutate(req request, apply func(geo.Pos) error) (any, error) {
	if req.Pos == nil {
		return nil, fmt.Errorf("%w: pos is required", errMissingField)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := apply(req.Pos.pos()); err != nil {
		return nil, err
	}
	return ackResponse{Type: TypeAck, ID: req.ID, Stale: h.pf.RoutesStale()}, nil
}

func (h *Handler) precompute(ctx context.Context, req request) (any, error) {
	workers := req.Workers
	if workers <= 0 {
		workers = h.cfg.Workers
	}
	var opts []geo.PrecomputeOption
	if workers > 1 {
		opts = append(opts, geo.WithParallel(workers))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	stats, err := h.pf.Precompute(ctx, opts...)
	if err != nil {
		return nil, err
	}

	resp := ackResponse{
		Type:      TypeAck,
		ID:        req.ID,
		Stale:     h.pf.RoutesStale(),
		Routes:    stats.Routes,
		Searches:  stats.Searches,
		ElapsedMS: stats.Elapsed.Milliseconds(),
	}
	if h.cfg.Saver != nil {
		if _, err := h.cfg.Saver.SaveRoutes(ctx, h.pf); err != nil {
			slog.Error("saving routes", "error", err)
		} else {
			resp.Saved = true
		}
	}
	return resp, nil
}

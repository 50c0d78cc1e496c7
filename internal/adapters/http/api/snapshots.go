package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/tradevalue/internal/domain/model"
)

// SnapshotDependencies defines snapshots and the movers report.
type SnapshotDependencies interface {
	TakeSnapshot(ctx context.Context) (model.Snapshot, error)
	SnapshotDays(ctx context.Context) ([]string, error)
	Movers(ctx context.Context, position, order string, windowDays int) ([]model.Mover, error)
}

type snapshotResponse struct {
	Day     string    `json:"day"`
	TakenAt time.Time `json:"taken_at"`
	Players int       `json:"players"`
}

// SnapshotsHandler handles snapshot and movers requests.
type SnapshotsHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps}
}

// HandleTakeSnapshot handles POST /snapshots.
func (h *SnapshotsHandler) HandleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.take_snapshot"
	snap, err := h.deps.TakeSnapshot(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, snapshotResponse{Day: snap.Day, TakenAt: snap.TakenAt, Players: len(snap.Players)})
}

// HandleListSnapshots handles GET /snapshots.
func (h *SnapshotsHandler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_snapshots"
	days, err := h.deps.SnapshotDays(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(days))
}

// HandleMovers handles GET /movers?position=&sort=&window_days=.
func (h *SnapshotsHandler) HandleMovers(w http.ResponseWriter, r *http.Request) {
	const op = "api.movers"
	window, err := intParam(r, "window_days", 0)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	q := r.URL.Query()
	out, err := h.deps.Movers(r.Context(), q.Get("position"), q.Get("sort"), window)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

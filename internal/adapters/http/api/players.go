package api

import (
	"context"
	"net/http"

	"github.com/okian/tradevalue/internal/domain/model"
)

// PlayerDependencies defines the catalog reads.
type PlayerDependencies interface {
	Players(ctx context.Context) ([]model.Player, error)
	Player(ctx context.Context, id string) (model.Player, error)
	Search(ctx context.Context, query string) ([]model.Player, error)
	Random(ctx context.Context, count int) ([]model.Player, error)
	Rankings(ctx context.Context) ([]model.Player, error)
}

// PlayersHandler serves the player catalog.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleList handles GET /players.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_players"
	players, err := h.deps.Players(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(players))
}

// HandleGet handles GET /players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	p, err := h.deps.Player(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSearch handles GET /players/search?q=.
func (h *PlayersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_players"
	players, err := h.deps.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(players))
}

// HandleRandom handles GET /players/random?count=.
func (h *PlayersHandler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	const op = "api.random_players"
	count, err := intParam(r, "count", 0)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	players, err := h.deps.Random(r.Context(), count)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleRankings handles GET /rankings.
func (h *PlayersHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.rankings"
	players, err := h.deps.Rankings(r.Context())
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(players))
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

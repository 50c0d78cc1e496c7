package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/tradevalue/internal/domain/model"
)

// VoteDependencies defines round submission and polling.
type VoteDependencies interface {
	SubmitRound(ctx context.Context, r model.Round) (model.RoundResult, bool, error)
	RoundStatus(ctx context.Context, id string) (model.RoundResult, error)
}

// roundRequest mirrors the OpenAPI schema for POST /votes.
type roundRequest struct {
	RoundID string              `json:"round_id"`
	Ballots []model.RoundBallot `json:"ballots"`
}

func (req roundRequest) validate() error {
	if len(req.Ballots) == 0 {
		return errors.New("missing ballots")
	}
	for _, b := range req.Ballots {
		if strings.TrimSpace(b.Vote) == "" {
			return errors.New("missing vote")
		}
	}
	return nil
}

type ackResponse struct {
	Status    string             `json:"status"`
	Duplicate bool               `json:"duplicate"`
	RoundID   string             `json:"round_id"`
	Round     *model.RoundResult `json:"round,omitempty"`
}

// VotesHandler handles vote rounds.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// HandlePostRound handles POST /votes. Rounds are applied asynchronously;
// a round id already seen is acknowledged without being applied again.
func (h *VotesHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_round"
	var req roundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, duplicate, err := h.deps.SubmitRound(r.Context(), model.Round{
		ID:      strings.TrimSpace(req.RoundID),
		Ballots: req.Ballots,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, RoundID: res.ID, Round: &res})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RoundID: res.ID})
}

// HandleGetRound handles GET /votes/{round_id}.
func (h *VotesHandler) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_round"
	res, err := h.deps.RoundStatus(r.Context(), r.PathValue("round_id"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

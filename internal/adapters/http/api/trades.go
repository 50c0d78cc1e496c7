package api

import (
	"context"
	"net/http"

	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/internal/domain/trade"
)

// TradeDependencies defines trade valuation and submissions.
type TradeDependencies interface {
	EvaluateTrade(ctx context.Context, sideA, sideB []string) (trade.Verdict, error)
	SubmitTrade(ctx context.Context, sideA, sideB []string) (model.Submission, int, error)
	Submissions(ctx context.Context, limit int) ([]model.Submission, error)
}

// tradeRequest mirrors the OpenAPI schema for the trade endpoints.
type tradeRequest struct {
	SideA []string `json:"side_a"`
	SideB []string `json:"side_b"`
}

type submissionResponse struct {
	Submission model.Submission `json:"submission"`
	Total      int              `json:"total"`
}

// TradesHandler handles trade requests.
type TradesHandler struct {
	deps     TradeDependencies
	maxLimit int
}

// NewTradesHandler creates a new trades handler.
func NewTradesHandler(deps TradeDependencies, maxLimit int) *TradesHandler {
	return &TradesHandler{deps: deps, maxLimit: maxLimit}
}

// HandleEvaluate handles POST /trades/evaluate.
func (h *TradesHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate_trade"
	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.EvaluateTrade(r.Context(), req.SideA, req.SideB)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleSubmit handles POST /trades/submissions.
func (h *TradesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_trade"
	var req tradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, total, err := h.deps.SubmitTrade(r.Context(), req.SideA, req.SideB)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, submissionResponse{Submission: sub, Total: total})
}

// HandleListSubmissions handles GET /trades/submissions?limit=.
func (h *TradesHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_submissions"
	n, err := intParam(r, "limit", defaultSubmissionsSize)
	if err != nil || n < 1 || n > h.maxLimit {
		fail(w, NewKind(op, ErrBadRequest))
		return
	}
	subs, err := h.deps.Submissions(r.Context(), n)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(subs))
}

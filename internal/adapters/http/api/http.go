// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// Default limits.
const (
	DefaultMaxLimit        = 100
	defaultLeaderboardSize = 10
	defaultSubmissionsSize = 20
	maxBodyBytes           = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	PlayerDependencies
	VoteDependencies
	TradeDependencies
	LeaderboardDependencies
	RankDependencies
	SnapshotDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	playersHandler     *PlayersHandler
	votesHandler       *VotesHandler
	tradesHandler      *TradesHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	snapshotsHandler   *SnapshotsHandler

	corsOrigins []string
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit    int
	corsOrigins []string
}

// WithMaxLimit caps the limit query parameter of list endpoints.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins ...string) Option {
	return func(c *serverConfig) { c.corsOrigins = origins }
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: DefaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
		votesHandler:       NewVotesHandler(deps),
		tradesHandler:      NewTradesHandler(deps, cfg.maxLimit),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		rankHandler:        NewRankHandler(deps),
		snapshotsHandler:   NewSnapshotsHandler(deps),
		corsOrigins:        cfg.corsOrigins,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /players", MetricsMiddleware(s.playersHandler.HandleList, "players"))
	mux.HandleFunc("GET /players/search", MetricsMiddleware(s.playersHandler.HandleSearch, "players_search"))
	mux.HandleFunc("GET /players/random", MetricsMiddleware(s.playersHandler.HandleRandom, "players_random"))
	mux.HandleFunc("GET /players/{id}", MetricsMiddleware(s.playersHandler.HandleGet, "player"))
	mux.HandleFunc("GET /rankings", MetricsMiddleware(s.playersHandler.HandleRankings, "rankings"))

	mux.HandleFunc("POST /votes", MetricsMiddleware(s.votesHandler.HandlePostRound, "votes"))
	mux.HandleFunc("GET /votes/{round_id}", MetricsMiddleware(s.votesHandler.HandleGetRound, "vote_status"))

	mux.HandleFunc("POST /trades/evaluate", MetricsMiddleware(s.tradesHandler.HandleEvaluate, "trades_evaluate"))
	mux.HandleFunc("POST /trades/submissions", MetricsMiddleware(s.tradesHandler.HandleSubmit, "trades_submit"))
	mux.HandleFunc("GET /trades/submissions", MetricsMiddleware(s.tradesHandler.HandleListSubmissions, "trades_submissions"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	mux.HandleFunc("GET /movers", MetricsMiddleware(s.snapshotsHandler.HandleMovers, "movers"))
	mux.HandleFunc("POST /snapshots", MetricsMiddleware(s.snapshotsHandler.HandleTakeSnapshot, "snapshots_take"))
	mux.HandleFunc("GET /snapshots", MetricsMiddleware(s.snapshotsHandler.HandleListSnapshots, "snapshots"))
}

// Handler wraps h with the CORS policy the server was configured with.
func (s *Server) Handler(h http.Handler) http.Handler {
	return WithCORS(h, s.corsOrigins)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// intParam parses an optional integer query parameter. Missing means def.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

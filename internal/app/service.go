// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/okian/tradevalue/internal/adapters/mq/events"
	"github.com/okian/tradevalue/internal/adapters/mq/queue"
	"github.com/okian/tradevalue/internal/adapters/mq/worker"
	"github.com/okian/tradevalue/internal/adapters/repository"
	"github.com/okian/tradevalue/internal/domain/catalog"
	"github.com/okian/tradevalue/internal/domain/dedupe"
	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/internal/domain/movers"
	"github.com/okian/tradevalue/internal/domain/rating"
	"github.com/okian/tradevalue/internal/domain/trade"
	"github.com/okian/tradevalue/pkg/logger"
	"github.com/okian/tradevalue/pkg/metrics"
)

// Defaults.
const (
	DefaultQueueSize  = 1024
	DefaultDedupeSize = dedupe.DefaultCapacity
	// MaxRandomPlayers caps Random.
	MaxRandomPlayers = 10
	// submissionIDSize is the length of generated submission ids.
	submissionIDSize = 12
)

// SnapshotSaved is the payload of a snapshot.saved event.
type SnapshotSaved struct {
	Day     string    `json:"day"`
	TakenAt time.Time `json:"taken_at"`
	Players int       `json:"players"`
}

// TradeSubmitted is the payload of a trade.submitted event.
type TradeSubmitted struct {
	Submission model.Submission `json:"submission"`
	Total      int              `json:"total"`
}

// Service implements the API dependencies for the trade value system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	publisher events.Publisher
	deduper   dedupe.Deduper
	rounds    *queue.InMemoryQueue
	worker    *worker.RoundWorker
	tracker   *tracker

	// Configuration
	queueSize       int
	dedupeSize      int
	moverWindowDays int

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service over store. Rounds are accepted after Start.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		publisher:       events.NewLocalBus(),
		queueSize:       DefaultQueueSize,
		dedupeSize:      DefaultDedupeSize,
		moverWindowDays: movers.DefaultWindowDays,
		rng:             rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)), //nolint:gosec // not security sensitive
		now:             time.Now,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the round queue and starts the single writer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.New(dedupe.WithCapacity(s.dedupeSize))
	s.tracker = newTracker(s.dedupeSize)
	s.rounds = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewRoundWorker(s.rounds, s.store,
		worker.WithName("round-writer"),
		worker.WithLogger(s.logger),
		worker.WithPublisher(s.publisher),
		worker.WithTracker(s.tracker),
	)
	// the writer outlives request contexts; Stop ends it
	go s.worker.Run(context.WithoutCancel(ctx))

	metrics.UpdatePlayersTotal(s.store.Count(ctx))
	s.started = true
	s.logger.Info(ctx, "trade value service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("players", s.store.Count(ctx)),
	)
	return nil
}

// Stop closes the round queue, waits for the writer to apply what is left and
// closes the store. Rounds still queued when ctx ends are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping trade value service...")

	_ = s.rounds.Close()
	var errs []error
	select {
	case <-s.worker.Done():
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		errs = append(errs, s.worker.Shutdown(stopCtx))
		cancel()
	}
	errs = append(errs, s.store.Close())

	s.started = false
	s.logger.Info(ctx, "trade value service stopped")
	return errors.Join(errs...)
}

// SubmitRound validates and enqueues a vote round. A round id seen before is
// not enqueued again; duplicate reports that case and the returned result is
// the known status of that round.
func (s *Service) SubmitRound(ctx context.Context, r model.Round) (res model.RoundResult, duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.RoundResult{}, false, ErrNotStarted
	}

	if err := validateRound(r); err != nil {
		return model.RoundResult{}, false, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = s.now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, r.ID) {
		metrics.RecordRoundDuplicate()
		known, ok := s.tracker.get(r.ID)
		if !ok {
			known = model.RoundResult{ID: r.ID, Status: model.RoundApplied}
		}
		return known, true, nil
	}

	res = s.tracker.pending(r)
	if err := s.rounds.Enqueue(ctx, r); err != nil {
		s.deduper.Forget(ctx, r.ID)
		s.tracker.forget(r.ID)
		if errors.Is(err, queue.ErrFull) {
			return model.RoundResult{}, false, fmt.Errorf("%w: %d rounds waiting", ErrBackpressure, s.rounds.Len())
		}
		return model.RoundResult{}, false, fmt.Errorf("enqueue round %s: %w", r.ID, err)
	}
	metrics.RecordRoundAccepted()
	s.logger.Debug(ctx, "round accepted", logger.String("roundID", r.ID), logger.Int("ballots", len(r.Ballots)))
	return res, false, nil
}

// validateRound rejects rounds that can never be applied. Player values are
// only read when the round is applied.
func validateRound(r model.Round) error {
	if len(r.Ballots) < 2 {
		return fmt.Errorf("%w: a round needs at least 2 ballots, got %d", rating.ErrInvalidInput, len(r.Ballots))
	}
	refs := make(map[string]struct{}, len(r.Ballots))
	votes := make(map[rating.Vote]struct{}, len(r.Ballots))
	for i, b := range r.Ballots {
		ref := b.ID
		if ref == "" {
			ref = "name:" + b.Name
		}
		if b.ID == "" && b.Name == "" {
			return fmt.Errorf("%w: ballot %d has neither id nor name", rating.ErrInvalidInput, i)
		}
		if _, dup := refs[ref]; dup {
			return fmt.Errorf("%w: player %s appears twice", rating.ErrInvalidInput, strings.TrimPrefix(ref, "name:"))
		}
		refs[ref] = struct{}{}

		v, err := rating.ParseVote(b.Vote)
		if err != nil {
			return fmt.Errorf("ballot %d: %w", i, err)
		}
		if _, dup := votes[v]; dup {
			return fmt.Errorf("%w: vote %s used twice", rating.ErrInvalidInput, v)
		}
		votes[v] = struct{}{}
	}
	return nil
}

// RoundStatus returns the status of a recently submitted round.
func (s *Service) RoundStatus(_ context.Context, id string) (model.RoundResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.RoundResult{}, ErrNotStarted
	}
	res, ok := s.tracker.get(id)
	if !ok {
		return model.RoundResult{}, fmt.Errorf("%w: round %s", repository.ErrNotFound, id)
	}
	return res, nil
}

// EvaluateTrade values two packages of player ids against the current values.
func (s *Service) EvaluateTrade(ctx context.Context, sideA, sideB []string) (trade.Verdict, error) {
	universe, err := s.store.All(ctx)
	if err != nil {
		return trade.Verdict{}, err
	}
	a, err := pick(universe, sideA)
	if err != nil {
		return trade.Verdict{}, fmt.Errorf("side A: %w", err)
	}
	b, err := pick(universe, sideB)
	if err != nil {
		return trade.Verdict{}, fmt.Errorf("side B: %w", err)
	}

	v, err := trade.Evaluate(a, b, universe)
	if err != nil {
		return trade.Verdict{}, err
	}
	if err := metrics.RecordTradeEvaluation(string(v.Status)); err != nil {
		s.logger.Warn(ctx, "trade metric not recorded", logger.Error(err))
	}
	return v, nil
}

// pick returns the players with the given ids, in order.
func pick(universe []model.Player, ids []string) ([]model.Player, error) {
	byID := make(map[string]model.Player, len(universe))
	for _, p := range universe {
		byID[p.ID] = p
	}
	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown player %q", trade.ErrInvalidInput, id)
		}
		out = append(out, p)
	}
	return out, nil
}

// SubmitTrade evaluates a trade and records it. It returns the stored
// submission and the number of submissions so far.
func (s *Service) SubmitTrade(ctx context.Context, sideA, sideB []string) (model.Submission, int, error) {
	v, err := s.EvaluateTrade(ctx, sideA, sideB)
	if err != nil {
		return model.Submission{}, 0, err
	}
	id, err := gonanoid.New(submissionIDSize)
	if err != nil {
		return model.Submission{}, 0, fmt.Errorf("submission id: %w", err)
	}

	sub := model.Submission{
		ID:         id,
		CreatedAt:  s.now().UTC(),
		SideA:      sideA,
		SideB:      sideB,
		Status:     string(v.Status),
		FinalA:     v.FinalA,
		FinalB:     v.FinalB,
		Difference: v.Difference,
	}
	total, err := s.store.AddSubmission(ctx, sub)
	if err != nil {
		return model.Submission{}, 0, err
	}
	metrics.RecordTradeSubmission()
	s.publish(ctx, events.New(events.TypeTradeSubmitted, TradeSubmitted{Submission: sub, Total: total}))
	return sub, total, nil
}

// Submissions returns up to limit submissions, newest first.
func (s *Service) Submissions(ctx context.Context, limit int) ([]model.Submission, error) {
	return s.store.Submissions(ctx, limit)
}

// Players returns every player in catalog order.
func (s *Service) Players(ctx context.Context) ([]model.Player, error) {
	return s.store.All(ctx)
}

// Player returns one player.
func (s *Service) Player(ctx context.Context, id string) (model.Player, error) {
	return s.store.Get(ctx, id)
}

// Search is the autocomplete lookup over name and team.
func (s *Service) Search(ctx context.Context, query string) ([]model.Player, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Search(all, query), nil
}

// Random draws count distinct players, catalog.TriadSize when count is 0.
func (s *Service) Random(ctx context.Context, count int) ([]model.Player, error) {
	if count == 0 {
		count = catalog.TriadSize
	}
	if count < 0 || count > MaxRandomPlayers {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidInput, MaxRandomPlayers)
	}
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	out, err := catalog.Random(all, count, s.rng)
	if errors.Is(err, catalog.ErrNotEnoughPlayers) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return out, err
}

// Rankings returns the expert-ranked players, best first.
func (s *Service) Rankings(ctx context.Context) ([]model.Player, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Rankings(all), nil
}

// TopN returns the n most valuable players.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.store.TopN(ctx, n)
}

// Rank returns a player's leaderboard row.
func (s *Service) Rank(ctx context.Context, id string) (repository.Entry, error) {
	return s.store.Rank(ctx, id)
}

// TakeSnapshot stores today's copy of every player value.
func (s *Service) TakeSnapshot(ctx context.Context) (model.Snapshot, error) {
	start := time.Now()
	players, err := s.store.All(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	now := s.now().UTC()
	snap := model.Snapshot{
		Day:     now.Format(model.SnapshotDayLayout),
		TakenAt: now,
		Players: players,
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		metrics.RecordErrorByComponent("snapshot", "save_failed")
		return model.Snapshot{}, err
	}

	metrics.RecordSnapshot(float64(time.Since(start).Milliseconds()), now)
	s.logger.Info(ctx, "snapshot saved", logger.String("day", snap.Day), logger.Int("players", len(players)))
	s.publish(ctx, events.New(events.TypeSnapshotSaved, SnapshotSaved{Day: snap.Day, TakenAt: now, Players: len(players)}))
	return snap, nil
}

// SnapshotDays lists stored snapshot days, oldest first.
func (s *Service) SnapshotDays(ctx context.Context) ([]string, error) {
	return s.store.SnapshotDays(ctx)
}

// RunSnapshots takes a snapshot every interval until ctx ends.
func (s *Service) RunSnapshots(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.TakeSnapshot(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error(ctx, "periodic snapshot failed", logger.Error(err))
			}
		}
	}
}

// Movers compares current values with the baseline snapshot of the last
// windowDays (the service default when 0) and orders by change.
func (s *Service) Movers(ctx context.Context, position, order string, windowDays int) ([]model.Mover, error) {
	o, err := movers.ParseOrder(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: window_days must not be negative", ErrInvalidInput)
	}
	if windowDays == 0 {
		windowDays = s.moverWindowDays
	}

	days, err := s.store.SnapshotDays(ctx)
	if err != nil {
		return nil, err
	}
	day, ok := movers.Baseline(days, s.now().UTC(), windowDays)
	if !ok {
		return nil, repository.ErrNoSnapshot
	}
	base, err := s.store.Snapshot(ctx, day)
	if err != nil {
		return nil, err
	}
	current, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return movers.Compare(current, base.Players, position, o), nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "event not published", logger.String("type", e.Type), logger.Error(err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	players := s.store.Count(ctx)
	stats := map[string]any{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"players":    players,
	}
	metrics.UpdatePlayersTotal(players)

	if s.started {
		stats["queueLength"] = s.rounds.Len()
		stats["roundsSeen"] = s.deduper.Len()
		stats["roundsPending"] = s.tracker.count(model.RoundPending)
		stats["roundsApplied"] = s.tracker.count(model.RoundApplied)
		stats["roundsFailed"] = s.tracker.count(model.RoundFailed)
	}
	if days, err := s.store.SnapshotDays(ctx); err == nil {
		stats["snapshots"] = len(days)
	}
	return stats
}

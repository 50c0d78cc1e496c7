// Package worker applies queued vote rounds to the player store.
//
// A single RoundWorker owns every value write, so two rounds never read and
// write the same player concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/tradevalue/internal/adapters/mq/events"
	"github.com/okian/tradevalue/internal/adapters/mq/queue"
	"github.com/okian/tradevalue/internal/adapters/repository"
	"github.com/okian/tradevalue/internal/domain/model"
	"github.com/okian/tradevalue/internal/domain/rating"
	"github.com/okian/tradevalue/pkg/logger"
	"github.com/okian/tradevalue/pkg/metrics"
)

// Queue is where the worker receives rounds.
type Queue interface {
	Next(ctx context.Context) (model.Round, error)
}

// Store is the part of the player store the worker needs.
type Store interface {
	Resolve(ctx context.Context, ref model.PlayerRef) (model.Player, error)
	ApplyUpdates(ctx context.Context, updates []model.ValueUpdate) (repository.ApplyResult, error)
}

// Tracker records the outcome of each round.
type Tracker interface {
	Finish(result model.RoundResult)
}

// Worker applies rounds until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called or
	// the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the round in flight.
	Shutdown(ctx context.Context) error
}

// ValuesUpdated is the payload of a values.updated event.
type ValuesUpdated struct {
	RoundID      string              `json:"round_id"`
	Updates      []model.ValueUpdate `json:"updates"`
	UpdatedCount int                 `json:"updated_count"`
}

// RoundWorker implements Worker.
type RoundWorker struct {
	queue     Queue
	store     Store
	publisher events.Publisher
	tracker   Tracker
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRoundWorker creates a worker reading from q and writing to store.
func NewRoundWorker(q Queue, store Store, opts ...Option) *RoundWorker {
	w := &RoundWorker{
		queue:     q,
		store:     store,
		publisher: nopPublisher{},
		tracker:   nopTracker{},
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *RoundWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		round, err := w.queue.Next(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && ctx.Err() == nil {
				w.logger.Error(ctx, "queue read failed", logger.Error(err))
			}
			return
		}
		// a round already dequeued is finished even when shutdown started
		if err := w.Apply(context.WithoutCancel(ctx), round); err != nil {
			w.logger.Warn(ctx, "round failed",
				logger.String("roundID", round.ID),
				logger.Error(err),
			)
		}
	}
}

// Shutdown gracefully stops the worker. Close the queue first to have pending
// rounds applied before the worker exits.
func (w *RoundWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *RoundWorker) Done() <-chan struct{} { return w.done }

// Apply resolves the round's players against the store, computes the value
// updates and writes them. The outcome is always reported to the tracker.
func (w *RoundWorker) Apply(ctx context.Context, round model.Round) error {
	start := time.Now()
	result := model.RoundResult{ID: round.ID, SubmittedAt: round.SubmittedAt}

	updates, applied, err := w.apply(ctx, round)
	finished := time.Now().UTC()
	result.FinishedAt = &finished
	if err != nil {
		metrics.RecordRoundFailed()
		metrics.RecordErrorByComponent("worker", "round_failed")
		result.Status = model.RoundFailed
		result.Error = err.Error()
		w.tracker.Finish(result)
		return fmt.Errorf("apply round %s: %w", round.ID, err)
	}

	metrics.RecordRoundApplied(float64(time.Since(start).Milliseconds()))
	for _, u := range updates {
		metrics.RecordValueUpdate(u.Delta())
	}
	result.Status = model.RoundApplied
	result.Updates = updates
	result.UpdatedCount = applied.UpdatedCount
	w.tracker.Finish(result)

	w.logger.Debug(ctx, "round applied",
		logger.String("roundID", round.ID),
		logger.Int("updated", applied.UpdatedCount),
	)

	payload := ValuesUpdated{RoundID: round.ID, Updates: updates, UpdatedCount: applied.UpdatedCount}
	if err := w.publisher.Publish(ctx, events.New(events.TypeValuesUpdated, payload)); err != nil {
		w.logger.Warn(ctx, "publish values.updated failed",
			logger.String("roundID", round.ID),
			logger.Error(err),
		)
	}
	return nil
}

func (w *RoundWorker) apply(ctx context.Context, round model.Round) ([]model.ValueUpdate, repository.ApplyResult, error) {
	ballots := make([]rating.Ballot, 0, len(round.Ballots))
	for _, b := range round.Ballots {
		p, err := w.store.Resolve(ctx, model.PlayerRef{ID: b.ID, Name: b.Name})
		if err != nil {
			return nil, repository.ApplyResult{}, fmt.Errorf("resolve %q: %w", refLabel(b), err)
		}
		ballots = append(ballots, rating.Ballot{ID: p.ID, Name: p.Name, Value: float64(p.Value), Vote: b.Vote})
	}

	updates, err := rating.ProcessRound(ballots)
	if err != nil {
		return nil, repository.ApplyResult{}, err
	}

	applied, err := w.store.ApplyUpdates(ctx, updates)
	if err != nil {
		return nil, repository.ApplyResult{}, fmt.Errorf("store updates: %w", err)
	}
	return updates, applied, nil
}

func refLabel(b model.RoundBallot) string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) error { return nil }
func (nopPublisher) Close() error                                { return nil }

type nopTracker struct{}

func (nopTracker) Finish(model.RoundResult) {}

package worker

import (
	"github.com/okian/tradevalue/internal/adapters/mq/events"
	"github.com/okian/tradevalue/pkg/logger"
)

// Option applies a configuration option to the RoundWorker.
type Option func(*RoundWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RoundWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RoundWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPublisher publishes a values.updated event after every applied round.
func WithPublisher(p events.Publisher) Option {
	return func(w *RoundWorker) {
		if p != nil {
			w.publisher = p
		}
	}
}

// WithTracker reports round outcomes to t.
func WithTracker(t Tracker) Option {
	return func(w *RoundWorker) {
		if t != nil {
			w.tracker = t
		}
	}
}

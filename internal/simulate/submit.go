package simulate

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tradevalue/pkg/logger"
)

// submitRounds posts rounds concurrently and records the outcomes in stats.
// Rounds rejected with 429 are retried a few times before counting as
// backpressure.
func submitRounds(ctx context.Context, cfg *Config, client *Client, rounds []Round, stats *Stats) []string {
	log := logger.Get()
	log.Info(ctx, "submitting rounds",
		logger.Int("rounds", len(rounds)),
		logger.Int("workers", cfg.Workers))

	var (
		submitted    atomic.Int64
		accepted     atomic.Int64
		duplicate    atomic.Int64
		backpressure atomic.Int64
		failed       atomic.Int64
	)

	var (
		mu          sync.Mutex
		acceptedIDs = make([]string, 0, len(rounds))
	)

	roundChan := make(chan Round, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range roundChan {
				outcome := submitWithRetry(ctx, client, r)
				submitted.Add(1)
				switch outcome {
				case outcomeAccepted:
					accepted.Add(1)
					mu.Lock()
					acceptedIDs = append(acceptedIDs, r.RoundID)
					mu.Unlock()
				case outcomeDuplicate:
					duplicate.Add(1)
				case outcomeBackpressure:
					backpressure.Add(1)
				default:
					failed.Add(1)
				}
				if cfg.Verbose {
					log.Debug(ctx, "round submitted",
						logger.String("roundID", r.RoundID),
						logger.String("outcome", outcome))
				}
			}
		}()
	}

	go func() {
		defer close(roundChan)
		for _, r := range rounds {
			select {
			case <-ctx.Done():
				return
			case roundChan <- r:
			}
		}
	}()
	wg.Wait()

	stats.RoundsSubmitted = int(submitted.Load())
	stats.RoundsAccepted = int(accepted.Load())
	stats.RoundsDuplicate = int(duplicate.Load())
	stats.RoundsBackpressure = int(backpressure.Load())
	stats.RoundsFailed = int(failed.Load())

	log.Info(ctx, "round submission completed",
		logger.Int("accepted", stats.RoundsAccepted),
		logger.Int("duplicate", stats.RoundsDuplicate),
		logger.Int("backpressure", stats.RoundsBackpressure),
		logger.Int("failed", stats.RoundsFailed))
	return acceptedIDs
}

func submitWithRetry(ctx context.Context, client *Client, r Round) string {
	for attempt := 0; ; attempt++ {
		outcome := submitRound(ctx, client, r)
		if outcome != outcomeBackpressure || attempt >= maxBackpressureRetries {
			return outcome
		}
		select {
		case <-ctx.Done():
			return outcomeFailed
		case <-time.After(backpressureDelay * time.Duration(attempt+1)):
		}
	}
}

func submitRound(ctx context.Context, client *Client, r Round) string {
	status, body, err := client.Post(ctx, "/votes", r)
	if err != nil {
		return outcomeFailed
	}
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
			return outcomeAccepted
		}
		return outcomeDuplicate
	case http.StatusTooManyRequests:
		return outcomeBackpressure
	default:
		return outcomeFailed
	}
}

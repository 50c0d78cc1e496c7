package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/tradevalue/pkg/logger"
)

const directoryPermission = 0750

// Run executes a complete simulation against cfg.BaseURL and returns its
// statistics. Rounds the service rejects are counted, not treated as errors;
// an unreachable service or an inconsistent leaderboard is.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting vote simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Int("topN", cfg.TopN))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	players, err := getJSON[[]Player](ctx, client, "/players")
	if err != nil {
		return stats, fmt.Errorf("loading players: %w", err)
	}
	stats.PlayersLoaded = len(players)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	rounds, err := generateRounds(ctx, rng, players, cfg.Rounds)
	if err != nil {
		return stats, fmt.Errorf("round generation failed: %w", err)
	}
	stats.RoundsGenerated = len(rounds)
	batch := withDuplicates(rng, rounds, cfg.Duplicates)

	ids := submitRounds(ctx, &cfg, client, batch, stats)

	log.Info(ctx, "waiting for rounds to be applied", logger.Duration("settle", cfg.Settle))
	if err := awaitRounds(ctx, &cfg, client, ids, stats); err != nil {
		return stats, fmt.Errorf("polling rounds failed: %w", err)
	}

	leaderboard, err := verifyLeaderboard(ctx, &cfg, client, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveRounds(cfg.OutputFile, rounds); err != nil {
			log.Warn(ctx, "failed to save rounds to file", logger.Error(err))
		} else {
			log.Info(ctx, "rounds saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, stats, leaderboard)
	return stats, nil
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	if c.Duplicates < 0 {
		c.Duplicates = 0
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	return c
}

// checkServiceHealth verifies the service answers on /healthz.
func checkServiceHealth(ctx context.Context, client *Client) error {
	status, _, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: /healthz returned %d", ErrUnexpectedStatus, status)
	}
	return nil
}

// saveRounds writes the generated rounds as an indented JSON array.
func saveRounds(filename string, rounds []Round) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rounds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rounds: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), 0o600)
}

func logFinalStats(ctx context.Context, stats *Stats, leaderboard []Entry) {
	var acceptRate, roundsPerSecond float64
	if stats.RoundsSubmitted > 0 {
		acceptRate = float64(stats.RoundsAccepted) / float64(stats.RoundsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		roundsPerSecond = float64(stats.RoundsSubmitted) / stats.Duration.Seconds()
	}

	log := logger.Get()
	for _, e := range leaderboard {
		log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("id", e.ID),
			logger.String("name", e.Name),
			logger.Int("value", e.Value))
	}
	log.Info(ctx, "final statistics",
		logger.Int("players", stats.PlayersLoaded),
		logger.Int("roundsGenerated", stats.RoundsGenerated),
		logger.Int("roundsSubmitted", stats.RoundsSubmitted),
		logger.Int("roundsAccepted", stats.RoundsAccepted),
		logger.Int("roundsDuplicate", stats.RoundsDuplicate),
		logger.Int("roundsBackpressure", stats.RoundsBackpressure),
		logger.Int("roundsFailed", stats.RoundsFailed),
		logger.Int("roundsApplied", stats.RoundsApplied),
		logger.Int("roundsRejected", stats.RoundsRejected),
		logger.Int("roundsPending", stats.RoundsPending),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("roundsPerSecond", roundsPerSecond))
}

package simulate

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/tradevalue/pkg/logger"
)

// ErrNotEnoughPlayers is returned when the catalog is too small to fill a round.
var ErrNotEnoughPlayers = errors.New("not enough players for a round")

// generateRounds builds n rounds, each voting on three distinct players with
// a random assignment of Start, Bench and Cut.
func generateRounds(ctx context.Context, rng *rand.Rand, players []Player, n int) ([]Round, error) {
	if len(players) < ballotsPerRound {
		return nil, ErrNotEnoughPlayers
	}
	logger.Get().Info(ctx, "generating rounds",
		logger.Int("rounds", n),
		logger.Int("players", len(players)))

	rounds := make([]Round, n)
	for i := range rounds {
		rounds[i] = generateRound(rng, players)
	}
	return rounds, nil
}

func generateRound(rng *rand.Rand, players []Player) Round {
	picked := make(map[int]struct{}, ballotsPerRound)
	ballots := make([]Ballot, 0, ballotsPerRound)
	order := rng.Perm(ballotsPerRound)
	for len(ballots) < ballotsPerRound {
		idx := rng.IntN(len(players))
		if _, seen := picked[idx]; seen {
			continue
		}
		picked[idx] = struct{}{}
		p := players[idx]
		ballots = append(ballots, Ballot{ID: p.ID, Name: p.Name, Vote: voteTiers[order[len(ballots)]]})
	}
	return Round{RoundID: uuid.NewString(), Ballots: ballots}
}

// withDuplicates appends n copies of already generated rounds so the
// service's dedupe path is exercised.
func withDuplicates(rng *rand.Rand, rounds []Round, n int) []Round {
	if len(rounds) == 0 {
		return rounds
	}
	out := make([]Round, len(rounds), len(rounds)+n)
	copy(out, rounds)
	for range n {
		out = append(out, rounds[rng.IntN(len(rounds))])
	}
	return out
}

// Package rating turns ranked Start/Bench/Cut votes into Elo-style value updates.
package rating

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/tradevalue/internal/domain/model"
)

// Elo parameters.
const (
	// EloScale is the logistic scale of the expectation curve.
	EloScale = 400
	// KFactor bounds the change a single matchup can cause.
	KFactor = 32
	// minBallots is the smallest round that yields a matchup.
	minBallots = 2
)

// Ballot is one player's entry in a voting round.
type Ballot struct {
	ID    string
	Name  string
	Value float64
	Vote  string
}

// contender is a validated ballot.
type contender struct {
	id    string
	name  string
	value float64
	tier  Vote
}

// ExpectedScore returns the probability that a player valued a beats one valued b.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/EloScale))
}

// NewValue applies one matchup outcome. actual is 1 for the winner and 0 for the loser.
func NewValue(oldValue, expected, actual float64) int {
	return int(math.Round(oldValue + KFactor*(actual-expected)))
}

// ProcessRound computes value updates for a round of ballots.
//
// Ballots are ordered by tier and every pair (i < j) is played with the higher tier
// as winner. Each matchup uses the values the players entered the round with. A
// player that takes part in several matchups keeps the result of the last one in
// enumeration order; for a Start/Bench/Cut triad that is Start vs Cut for Start and
// Bench vs Cut for the other two. Updates are returned in tier order.
func ProcessRound(ballots []Ballot) ([]model.ValueUpdate, error) {
	cs, err := validate(ballots)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cs, func(i, j int) bool { return cs[i].tier > cs[j].tier })

	final := make([]int, len(cs))
	for i := 0; i < len(cs); i++ {
		for j := i + 1; j < len(cs); j++ {
			winner, loser := cs[i], cs[j]
			// last matchup wins: later pairs overwrite earlier results
			final[i] = NewValue(winner.value, ExpectedScore(winner.value, loser.value), 1)
			final[j] = NewValue(loser.value, ExpectedScore(loser.value, winner.value), 0)
		}
	}

	updates := make([]model.ValueUpdate, len(cs))
	for i, c := range cs {
		updates[i] = model.ValueUpdate{
			ID:       c.id,
			Name:     c.name,
			OldValue: int(math.Round(c.value)),
			NewValue: final[i],
		}
	}
	return updates, nil
}

func validate(ballots []Ballot) ([]contender, error) {
	if len(ballots) < minBallots {
		return nil, fmt.Errorf("%w: need at least %d ballots, got %d", ErrInvalidInput, minBallots, len(ballots))
	}

	cs := make([]contender, 0, len(ballots))
	ids := make(map[string]struct{}, len(ballots))
	tiers := make(map[Vote]string, len(ballots))
	for _, b := range ballots {
		if b.ID == "" {
			return nil, fmt.Errorf("%w: ballot for %q has no id", ErrInvalidInput, b.Name)
		}
		if _, dup := ids[b.ID]; dup {
			return nil, fmt.Errorf("%w: player %s appears twice", ErrInvalidInput, b.ID)
		}
		ids[b.ID] = struct{}{}

		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			return nil, fmt.Errorf("%w: value of %s is not finite", ErrInvalidInput, b.ID)
		}

		tier, err := ParseVote(b.Vote)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", b.ID, err)
		}
		if other, dup := tiers[tier]; dup {
			return nil, fmt.Errorf("%w: %s and %s both voted %s", ErrInvalidInput, other, b.ID, tier)
		}
		tiers[tier] = b.ID

		cs = append(cs, contender{id: b.ID, name: b.Name, value: b.Value, tier: tier})
	}
	return cs, nil
}

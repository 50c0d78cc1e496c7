// Package trade values two trade packages against each other.
//
// A side's final value is its raw sum plus a quantity-imbalance adjustment that
// only the side giving up fewer pieces receives: consolidating value into one
// elite player is worth more than the same total spread across several.
package trade

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/okian/tradevalue/internal/domain/model"
)

// Valuation constants.
const (
	// FairThreshold is the largest difference still considered fair.
	FairThreshold = 200
	// SuggestionLimit caps the number of suggested equalizers.
	SuggestionLimit = 4
	// suggestionTolerance is the accepted relative distance from the difference.
	suggestionTolerance = 0.2
	// piecePremium is the extra multiplier per missing piece.
	piecePremium = 0.15
	// poolHeadroom softens the pool-relative term.
	poolHeadroom = 2000
)

// Status is the outcome class of an evaluation.
type Status string

// Evaluation outcomes.
const (
	Incomplete Status = "incomplete"
	Fair       Status = "fair"
	Unfavors   Status = "unfavors"
)

// Side names one of the two trade packages.
type Side string

// Trade sides.
const (
	SideA Side = "A"
	SideB Side = "B"
)

// Verdict is the full result of comparing two sides.
type Verdict struct {
	Status      Status         `json:"status"`
	RawA        int            `json:"raw_a"`
	RawB        int            `json:"raw_b"`
	AdjustmentA int            `json:"adjustment_a"`
	AdjustmentB int            `json:"adjustment_b"`
	FinalA      int            `json:"final_a"`
	FinalB      int            `json:"final_b"`
	Difference  int            `json:"difference"`
	Unfavored   Side           `json:"unfavored,omitempty"`
	Suggestions []model.Player `json:"suggestions,omitempty"`
}

// RawSum adds up the values on one side.
func RawSum(side []model.Player) int {
	total := 0
	for _, p := range side {
		total += p.Value
	}
	return total
}

// RawAdjustment is the premium a single piece is worth beyond its value. It grows
// faster than linearly for players near the top of the trade and of the market.
func RawAdjustment(value, topValueInTrade, maxValueInPool float64) (float64, error) {
	if topValueInTrade <= 0 {
		return 0, fmt.Errorf("%w: top value in trade must be positive, got %v", ErrInvalidInput, topValueInTrade)
	}
	if maxValueInPool <= 0 {
		return 0, fmt.Errorf("%w: max value in pool must be positive, got %v", ErrInvalidInput, maxValueInPool)
	}

	factor := 0.15 +
		0.25*math.Pow(value/maxValueInPool, 6) +
		0.15*math.Pow(value/topValueInTrade, 1.3) +
		0.15*math.Pow(value/(maxValueInPool+poolHeadroom), 1.28)
	return value * factor, nil
}

// TeamAdjustment is the bonus side earns against other. Only a non-empty side
// with strictly fewer pieces than the other side earns one.
func TeamAdjustment(side, other []model.Player, topValueInTrade, maxValueInPool float64) (float64, error) {
	if len(side) == 0 || len(side) >= len(other) {
		return 0, nil
	}

	multiplier := 1 + piecePremium*float64(len(other)-len(side))
	sum := 0.0
	for _, p := range side {
		adj, err := RawAdjustment(float64(p.Value), topValueInTrade, maxValueInPool)
		if err != nil {
			return 0, err
		}
		sum += adj
	}
	return multiplier * sum, nil
}

// Evaluate compares sideA with sideB. universe is every known player; it sets the
// market maximum and is the pool suggestions are drawn from.
func Evaluate(sideA, sideB, universe []model.Player) (Verdict, error) {
	maxPool := maxValue(universe)
	if maxPool <= 0 {
		return Verdict{}, fmt.Errorf("%w: value pool is empty or all zero", ErrInvalidInput)
	}
	if err := checkOverlap(sideA, sideB); err != nil {
		return Verdict{}, err
	}
	top := max(maxValue(sideA), maxValue(sideB))

	adjA, err := TeamAdjustment(sideA, sideB, float64(top), float64(maxPool))
	if err != nil {
		return Verdict{}, err
	}
	adjB, err := TeamAdjustment(sideB, sideA, float64(top), float64(maxPool))
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		RawA:        RawSum(sideA),
		RawB:        RawSum(sideB),
		AdjustmentA: int(math.Round(adjA)),
		AdjustmentB: int(math.Round(adjB)),
	}
	v.FinalA = v.RawA + v.AdjustmentA
	v.FinalB = v.RawB + v.AdjustmentB
	v.Difference = abs(v.FinalA - v.FinalB)

	switch {
	case len(sideA) == 0 || len(sideB) == 0:
		v.Status = Incomplete
	case v.Difference <= FairThreshold:
		v.Status = Fair
	default:
		v.Status = Unfavors
		v.Unfavored = SideA
		if v.FinalB < v.FinalA {
			v.Unfavored = SideB
		}
		v.Suggestions = Suggest(v.Difference, universe, sideA, sideB)
	}
	return v, nil
}

// Suggest picks up to SuggestionLimit players, absent from both sides, whose value
// lies within 20% of difference, closest first.
func Suggest(difference int, universe, sideA, sideB []model.Player) []model.Player {
	taken := make(map[string]struct{}, len(sideA)+len(sideB))
	for _, p := range sideA {
		taken[p.ID] = struct{}{}
	}
	for _, p := range sideB {
		taken[p.ID] = struct{}{}
	}

	limit := float64(difference) * suggestionTolerance
	var out []model.Player
	for _, p := range universe {
		if _, ok := taken[p.ID]; ok {
			continue
		}
		if float64(abs(p.Value-difference)) < limit {
			out = append(out, p)
		}
	}

	slices.SortStableFunc(out, func(a, b model.Player) int {
		return cmp.Compare(abs(a.Value-difference), abs(b.Value-difference))
	})
	if len(out) > SuggestionLimit {
		out = out[:SuggestionLimit]
	}
	return out
}

func checkOverlap(sideA, sideB []model.Player) error {
	ids := make(map[string]struct{}, len(sideA))
	for _, p := range sideA {
		ids[p.ID] = struct{}{}
	}
	for _, p := range sideB {
		if _, ok := ids[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrOverlap, p.ID)
		}
	}
	return nil
}

func maxValue(players []model.Player) int {
	m := 0
	for _, p := range players {
		m = max(m, p.Value)
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

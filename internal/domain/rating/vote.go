package rating

import (
	"fmt"
	"strings"
)

// Vote is the tier a player received in a voting round. Higher is preferred.
type Vote int

// Vote tiers.
const (
	Cut   Vote = 0
	Bench Vote = 1
	Start Vote = 2
)

// String returns the display name of the tier.
func (v Vote) String() string {
	switch v {
	case Start:
		return "Start"
	case Bench:
		return "Bench"
	case Cut:
		return "Cut"
	default:
		return fmt.Sprintf("Vote(%d)", int(v))
	}
}

// ParseVote parses a tier name, ignoring case and surrounding space.
func ParseVote(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return Start, nil
	case "bench":
		return Bench, nil
	case "cut":
		return Cut, nil
	case "":
		return 0, fmt.Errorf("%w: missing vote", ErrInvalidInput)
	default:
		return 0, fmt.Errorf("%w: unknown vote %q", ErrInvalidInput, s)
	}
}

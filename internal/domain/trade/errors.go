package trade

import (
	"errors"
	"fmt"
)

// Sentinel kinds for trade valuation errors.
var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrOverlap reports a player placed on both sides of a trade.
	ErrOverlap = fmt.Errorf("%w: player on both sides", ErrInvalidInput)
)

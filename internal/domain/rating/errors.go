package rating

import "errors"

// Sentinel kinds for rating errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)

package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrNoSnapshot   = errors.New("snapshot not found")
	ErrInvalidDay   = errors.New("invalid snapshot day")
)

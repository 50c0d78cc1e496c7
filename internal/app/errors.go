package service

import "errors"

var (
	// ErrInvalidInput marks a request the service cannot act on.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBackpressure is returned when the round queue is full.
	ErrBackpressure = errors.New("round queue is full")
	// ErrNotStarted is returned by round submission before Start.
	ErrNotStarted = errors.New("service not started")
)

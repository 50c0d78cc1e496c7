package metrics

import "errors"

// ErrUnknownVerdict is returned when a trade verdict label is not one the
// service emits.
var ErrUnknownVerdict = errors.New("unknown trade verdict")

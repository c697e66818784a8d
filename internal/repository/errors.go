package repository

import "errors"

// Storage-level sentinels surfaced to the service layer, which translates
// them into the caller-facing taxonomy.
var (
	// ErrCapacityExceeded is returned when a destination has no free slot
	// for another active pass.
	ErrCapacityExceeded = errors.New("destination capacity exceeded")

	// ErrWrongState is returned when a pass is not in a state the
	// requested write accepts.
	ErrWrongState = errors.New("pass not in expected state")
)

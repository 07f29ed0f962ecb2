package weights

import "errors"

var (
	// ErrRecomputeInProgress is returned when a snapshot rebuild is already running.
	ErrRecomputeInProgress = errors.New("weight recompute already in progress")
)

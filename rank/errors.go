package rank

import "errors"

var (
	// ErrInvalidConfig indicates a heuristic table the pipeline cannot use.
	ErrInvalidConfig = errors.New("invalid rank config")

	// ErrMalformedCandidate indicates a candidate whose payload could not
	// be compared against the query traits.
	ErrMalformedCandidate = errors.New("malformed candidate")
)

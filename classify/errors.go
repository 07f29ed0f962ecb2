package classify

import "errors"

var (
	// ErrEmptyQuery indicates a classification request with no input.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidThreshold indicates a threshold outside (0, 1).
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrEmptyCentroid indicates a category produced no centroid vectors.
	ErrEmptyCentroid = errors.New("empty category centroid")
)

package ai

import "errors"

var (
	// ErrDimensionMismatch indicates the embedding service returned a
	// vector whose length differs from the configured dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyInput indicates an embedding request with no text.
	ErrEmptyInput = errors.New("embedding input cannot be empty")
)

// Package domain holds the error taxonomy shared by the attribution engine.
package domain

import "errors"

var (
	// ErrInvalidInput marks malformed caller input: empty position lists where
	// none are allowed, mismatched time-series lengths, non-finite numbers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerate marks numerically degenerate-but-valid input that cannot
	// produce a meaningful figure, such as a singular risk model.
	ErrDegenerate = errors.New("numerically degenerate input")
)

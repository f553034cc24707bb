package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrEstimateNotFound = fmt.Errorf("%w: estimate", ErrNotFound)
	ErrChartNotFound    = fmt.Errorf("%w: chart", ErrNotFound)

	// Validation errors
	ErrInvalidRequest   = errors.New("invalid plot request")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Orchestration errors
	ErrSuperseded = errors.New("plot request superseded by a newer request")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInvalidRequestError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidRequest, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidRequestError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

func IsSupersededError(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

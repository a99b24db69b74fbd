package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidLayout      = errors.New("invalid layout")
	ErrNoPhotos           = errors.New("no photos provided")
	ErrCompositeNotFound  = errors.New("composite not found")
	ErrCompositeNotReady  = errors.New("composite is not ready")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNothingComposited  = errors.New("no photo could be composited")
	ErrFrameNotConfigured = errors.New("no frame supplied")
)

// ImageDecodeError is returned when a single frame or photo cannot be loaded.
type ImageDecodeError struct {
	Source string
	Err    error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decode image %s: %v", e.Source, e.Err)
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Err
}

// DetectionInsufficientError means the frame had fewer transparent bands than slots.
type DetectionInsufficientError struct {
	Found    int
	Expected int
}

func (e *DetectionInsufficientError) Error() string {
	return fmt.Sprintf("slot detection found %d of %d regions", e.Found, e.Expected)
}

// CompositionFailedError is the only error that escapes the orchestrator.
// Attempts keeps one error per strategy, in the order they ran.
type CompositionFailedError struct {
	Attempts []error
}

func (e *CompositionFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "failed to generate composite"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		parts = append(parts, err.Error())
	}
	return "failed to generate composite: " + strings.Join(parts, "; ")
}

func (e *CompositionFailedError) Unwrap() []error {
	return e.Attempts
}

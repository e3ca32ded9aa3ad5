package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrRefreshInProgress is returned when a snapshot refresh is already running
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

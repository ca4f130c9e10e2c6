package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidUser indicates an invalid user identifier.
	ErrInvalidUser = errors.New("invalid user")
	// ErrInvalidURL indicates an empty or malformed tab URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrInvalidIndex indicates a reorder target outside the tab order.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrPinnedViolation indicates an operation that would move, displace,
	// or remove the pinned tab.
	ErrPinnedViolation = errors.New("pinned violation")
)

package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidQuantity  = errors.New("quantity must be non-negative")
	ErrInvalidPercent   = errors.New("percentage must be non-negative")
	ErrNoSources        = errors.New("no extraction sources configured")
)

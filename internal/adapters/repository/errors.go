package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotConfigured = errors.New("store not configured")
	ErrCorruptStore  = errors.New("stored scores are not valid JSON")
	ErrConflict      = errors.New("concurrent update did not settle")
)

package repository

import "errors"

// Sentinel kinds for config store errors.
var (
	ErrNotFound       = errors.New("key not found")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrStoreClosed    = errors.New("store closed")
)

package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrCacheCorrupt        = errors.New("profile cache corrupt")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrAnalyzerUnavailable = errors.New("morphological analyzer unavailable")
)

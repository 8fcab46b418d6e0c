package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound     = errors.New("candidate not found")
	ErrInvalidLimit = errors.New("invalid ranking limit")
	ErrInvalidScore = errors.New("invalid candidate score")
)

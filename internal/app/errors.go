package service

import "errors"

var (
	// ErrNoCandidates reports a ranking request without frames.
	ErrNoCandidates = errors.New("no candidates to rank")
	// ErrInvalidRequest reports a request the service cannot evaluate.
	ErrInvalidRequest = errors.New("invalid request")
)

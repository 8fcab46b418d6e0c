package kinematics

import "errors"

var (
	// ErrUnknownParam is returned for a sensitivity parameter name that is not recognised.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrInvalidSensitivity is returned for a non-positive step or a sample count
	// outside [1, MaxSensitivityPoints].
	ErrInvalidSensitivity = errors.New("invalid sensitivity range")
)

package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by the solvers. These allow errors.Is from callers.
var (
	// ErrInfeasibleGeometry marks an angle that has no real solution for the
	// given rider and bike. It is carried inside an undefined Angle, never
	// returned as a call failure.
	ErrInfeasibleGeometry = errors.New("infeasible geometry")

	ErrLegUnreachable     = fmt.Errorf("%w: leg cannot span hip to pedal", ErrInfeasibleGeometry)
	ErrLegFolded          = fmt.Errorf("%w: pedal passes too close to hip", ErrInfeasibleGeometry)
	ErrFootTriangle       = fmt.Errorf("%w: lower leg, foot and ankle do not close", ErrInfeasibleGeometry)
	ErrArmUnreachable     = fmt.Errorf("%w: torso and arm cannot span seat to hand", ErrInfeasibleGeometry)
	ErrArmFolded          = fmt.Errorf("%w: hand too close to seat for torso and arm", ErrInfeasibleGeometry)
	ErrNonPositiveSegment = fmt.Errorf("%w: non-positive segment length", ErrInfeasibleGeometry)

	// ErrDegenerateFrame reports frame geometry with no real head tube position.
	ErrDegenerateFrame = errors.New("degenerate frame geometry")
	// ErrInvalidFrame reports missing or non-finite frame fields.
	ErrInvalidFrame = errors.New("invalid frame geometry")
	// ErrInvalidInput reports non-finite bike or body values.
	ErrInvalidInput = errors.New("invalid input vector")
	// ErrShapeMismatch reports batch inputs with inconsistent row or column counts.
	ErrShapeMismatch = errors.New("shape mismatch")
)

package model

import (
	"errors"
	"strconv"

	"github.com/okian/ergofit/internal/domain/units"
)

// Angle is a solved joint angle or the reason it has no solution.
// The zero value is undefined.
type Angle struct {
	rad    float64
	ok     bool
	reason error
}

// FeasibleAngle wraps a solved angle given in radians.
func FeasibleAngle(rad float64) Angle {
	return Angle{rad: rad, ok: true}
}

// FeasibleDegrees wraps a solved angle given in degrees.
func FeasibleDegrees(deg float64) Angle {
	return Angle{rad: units.DegToRad(deg), ok: true}
}

// InfeasibleAngle records why an angle could not be solved.
func InfeasibleAngle(reason error) Angle {
	if reason == nil {
		reason = ErrInfeasibleGeometry
	}
	return Angle{reason: reason}
}

// Feasible reports whether the angle holds a value.
func (a Angle) Feasible() bool { return a.ok }

// Radians returns the angle in radians and whether it is defined.
func (a Angle) Radians() (float64, bool) { return a.rad, a.ok }

// Degrees returns the angle in degrees and whether it is defined.
func (a Angle) Degrees() (float64, bool) {
	if !a.ok {
		return 0, false
	}
	return units.RadToDeg(a.rad), true
}

// Reason returns nil for a defined angle, otherwise an error wrapping
// ErrInfeasibleGeometry.
func (a Angle) Reason() error {
	if a.ok {
		return nil
	}
	if a.reason == nil {
		return ErrInfeasibleGeometry
	}
	return a.reason
}

func (a Angle) String() string {
	deg, ok := a.Degrees()
	if !ok {
		return "undefined"
	}
	return strconv.FormatFloat(deg, 'f', 2, 64)
}

// MinAngle returns the smaller of two angles. An undefined operand makes the
// result undefined; a is checked first so its reason wins.
func MinAngle(a, b Angle) Angle {
	switch {
	case !a.ok:
		return a
	case !b.ok:
		return b
	case b.rad < a.rad:
		return b
	default:
		return a
	}
}

// AngleResult holds the three angles the pipeline solves for one rider on one bike.
type AngleResult struct {
	KneeExtension Angle
	BackAngle     Angle
	ArmpitWrist   Angle
}

// Feasible reports whether every angle is defined.
func (r AngleResult) Feasible() bool {
	return r.KneeExtension.ok && r.BackAngle.ok && r.ArmpitWrist.ok
}

// Err joins the reasons of all undefined angles, or returns nil.
func (r AngleResult) Err() error {
	return errors.Join(r.KneeExtension.Reason(), r.BackAngle.Reason(), r.ArmpitWrist.Reason())
}

// Package kinematics solves the rider's joint angles on a bike.
//
// Lengths may be in any unit as long as bike and body agree. Angles are
// radians internally; elbow and ankle inputs are degrees. The crank angle is
// measured counter-clockwise from the forward horizontal, so the pedal sits
// at CL·(cos θ, sin θ) relative to the bottom bracket.
package kinematics

import (
	"math"

	"github.com/okian/ergofit/internal/domain/model"
)

// leg is the per-rider, per-bike part of the knee solve that does not depend
// on the crank angle.
type leg struct {
	upper, lower, foot float64
	// x1 is the knee to pedal-contact distance.
	x1     float64
	alpha4 float64
	sx, sy float64
	crank  float64
}

func newLeg(bike model.BikeVector, body model.BodyVector) (leg, error) {
	if !(body.UpperLeg > 0 && body.LowerLeg > 0 && body.Foot > 0) || bike.CrankLength < 0 {
		return leg{}, model.ErrNonPositiveSegment
	}
	x1 := thirdSide(body.LowerLeg, body.Foot, body.AnkleRad())
	a4, ok := oppositeAngle(body.LowerLeg, x1, body.Foot)
	if !ok {
		return leg{}, model.ErrFootTriangle
	}
	return leg{
		upper:  body.UpperLeg,
		lower:  body.LowerLeg,
		foot:   body.Foot,
		x1:     x1,
		alpha4: a4,
		sx:     bike.SeatX,
		sy:     bike.SeatY,
		crank:  bike.CrankLength,
	}, nil
}

// hipToPedal returns the hip to pedal vector with y pointing down.
func (l leg) hipToPedal(crankRad float64) (lx, ly float64) {
	return l.crank*math.Cos(crankRad) - l.sx, l.sy - l.crank*math.Sin(crankRad)
}

// thigh returns the thigh direction below the forward horizontal at the
// given crank angle.
func (l leg) thigh(crankRad float64) (float64, error) {
	lx, ly := l.hipToPedal(crankRad)
	x2 := math.Hypot(lx, ly)
	a1, ok := oppositeAngle(l.upper, x2, l.x1)
	if !ok {
		if x2 >= l.upper+l.x1 {
			return 0, model.ErrLegUnreachable
		}
		return 0, model.ErrLegFolded
	}
	return math.Atan2(ly, lx) - a1, nil
}

func (l leg) kneeAt(crankRad float64) model.Angle {
	a2, err := l.thigh(crankRad)
	if err != nil {
		return model.InfeasibleAngle(err)
	}
	lx, ly := l.hipToPedal(crankRad)
	kx := lx - l.upper*math.Cos(a2)
	ky := ly - l.upper*math.Sin(a2)
	a3 := math.Atan2(ky, kx) - a2
	return model.FeasibleAngle(a3 + l.alpha4)
}

// criticalAngles returns the crank angles where the hip to pedal distance is
// largest and smallest.
func (l leg) criticalAngles() (far, near float64) {
	return math.Atan2(-l.sy, -l.sx), math.Atan2(l.sy, l.sx)
}

// KneeExtension returns the knee flexion from straight at one crank angle.
// Zero means a fully straight leg.
func KneeExtension(bike model.BikeVector, body model.BodyVector, crankRad float64) model.Angle {
	l, err := newLeg(bike, body)
	if err != nil {
		return model.InfeasibleAngle(err)
	}
	return l.kneeAt(crankRad)
}

// HipBearing returns the thigh angle below the forward horizontal at one
// crank angle.
func HipBearing(bike model.BikeVector, body model.BodyVector, crankRad float64) model.Angle {
	l, err := newLeg(bike, body)
	if err != nil {
		return model.InfeasibleAngle(err)
	}
	a2, err := l.thigh(crankRad)
	if err != nil {
		return model.InfeasibleAngle(err)
	}
	return model.FeasibleAngle(a2)
}

// KneeOverPedal returns how far the knee sits forward of the pedal spindle
// with the crank horizontal and forward. Negative means behind.
func KneeOverPedal(bike model.BikeVector, body model.BodyVector) (float64, error) {
	l, err := newLeg(bike, body)
	if err != nil {
		return 0, err
	}
	a2, err := l.thigh(0)
	if err != nil {
		return 0, err
	}
	return bike.SeatX + l.upper*math.Cos(a2) - bike.CrankLength, nil
}

package kinematics

import (
	"fmt"

	"github.com/okian/ergofit/internal/domain/model"
)

// LegFeasible reports whether the leg closes at every crank angle. It checks
// the same samples the sweep always evaluates, and the hip to pedal distance
// only ever lies between those two.
func LegFeasible(bike model.BikeVector, body model.BodyVector) error {
	l, err := newLeg(bike, body)
	if err != nil {
		return err
	}
	far, near := l.criticalAngles()
	if _, err := l.thigh(far); err != nil {
		return err
	}
	if _, err := l.thigh(near); err != nil {
		return err
	}
	return nil
}

// ArmFeasible reports whether the torso and bent arm can span seat to hand.
func ArmFeasible(bike model.BikeVector, body model.BodyVector, elbowDeg float64) error {
	a, err := newArm(bike, body, elbowDeg)
	if err != nil {
		return err
	}
	_, _, err = a.angles()
	return err
}

// Feasible returns nil when Solve would yield three defined angles, otherwise
// the first reason it would not.
func Feasible(bike model.BikeVector, body model.BodyVector, elbowDeg float64) error {
	if err := LegFeasible(bike, body); err != nil {
		return err
	}
	return ArmFeasible(bike, body, elbowDeg)
}

// Mask evaluates Feasible for every row. All slices must have the same length.
func Mask(bikes []model.BikeVector, bodies []model.BodyVector, elbowsDeg []float64) ([]bool, error) {
	if len(bodies) != len(bikes) || len(elbowsDeg) != len(bikes) {
		return nil, fmt.Errorf("mask of %d bikes, %d bodies, %d elbows: %w",
			len(bikes), len(bodies), len(elbowsDeg), model.ErrShapeMismatch)
	}
	out := make([]bool, len(bikes))
	for i := range bikes {
		out[i] = Feasible(bikes[i], bodies[i], elbowsDeg[i]) == nil
	}
	return out, nil
}

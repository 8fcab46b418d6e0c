package kinematics

import (
	"fmt"
	"strings"

	"github.com/okian/ergofit/internal/domain/model"
)

// Param names one bike or body dimension that can be perturbed.
type Param int

const (
	ParamSeatX Param = iota
	ParamSeatY
	ParamHandX
	ParamHandY
	ParamCrankLength
	ParamLowerLeg
	ParamUpperLeg
	ParamTorso
	ParamArm
	ParamFoot
	ParamAnkle
	ParamElbow
)

var paramNames = [...]string{
	ParamSeatX:       "seat_x",
	ParamSeatY:       "seat_y",
	ParamHandX:       "hand_x",
	ParamHandY:       "hand_y",
	ParamCrankLength: "crank_length",
	ParamLowerLeg:    "lower_leg",
	ParamUpperLeg:    "upper_leg",
	ParamTorso:       "torso",
	ParamArm:         "arm",
	ParamFoot:        "foot",
	ParamAnkle:       "ankle_deg",
	ParamElbow:       "elbow_deg",
}

func (p Param) String() string {
	if p < 0 || int(p) >= len(paramNames) {
		return fmt.Sprintf("param(%d)", int(p))
	}
	return paramNames[p]
}

// ParseParam maps a parameter name to a Param.
func ParseParam(s string) (Param, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range paramNames {
		if n == name {
			return Param(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownParam)
}

// perturbed is one point of a sensitivity run.
type perturbed struct {
	bike  model.BikeVector
	body  model.BodyVector
	elbow float64
}

func (p Param) apply(in perturbed, delta float64) (perturbed, error) {
	out := in
	switch p {
	case ParamSeatX:
		out.bike.SeatX += delta
	case ParamSeatY:
		out.bike.SeatY += delta
	case ParamHandX:
		out.bike.HandX += delta
	case ParamHandY:
		out.bike.HandY += delta
	case ParamCrankLength:
		out.bike.CrankLength += delta
	case ParamLowerLeg:
		out.body.LowerLeg += delta
	case ParamUpperLeg:
		out.body.UpperLeg += delta
	case ParamTorso:
		out.body.Torso += delta
	case ParamArm:
		out.body.Arm += delta
	case ParamFoot:
		out.body.Foot += delta
	case ParamAnkle:
		out.body.AnkleDeg += delta
	case ParamElbow:
		out.elbow += delta
	default:
		return in, fmt.Errorf("%s: %w", p, ErrUnknownParam)
	}
	return out, nil
}

// MaxSensitivityPoints bounds the points on each side of a sensitivity run.
const MaxSensitivityPoints = 1000

// SensitivityRow is the result of one perturbation.
type SensitivityRow struct {
	Delta  float64
	Bike   model.BikeVector
	Body   model.BodyVector
	Elbow  float64
	Angles model.AngleResult
	// Change holds each angle minus the unperturbed angle.
	Change model.AngleResult
}

// Sensitivity perturbs one parameter by k·step for k in [-(n-1), n-1] and
// solves every point. Rows are ordered by delta; the middle row is the
// baseline with zero change.
func (s *Solver) Sensitivity(bike model.BikeVector, body model.BodyVector, elbowDeg float64, p Param, step float64, n int) ([]SensitivityRow, error) {
	if !(step > 0) || n < 1 || n > MaxSensitivityPoints {
		return nil, fmt.Errorf("step %g, samples %d: %w", step, n, ErrInvalidSensitivity)
	}
	base := perturbed{bike: bike, body: body, elbow: elbowDeg}
	if _, err := p.apply(base, 0); err != nil {
		return nil, err
	}
	baseline := s.Solve(bike, body, elbowDeg)

	rows := make([]SensitivityRow, 0, 2*n-1)
	for k := -(n - 1); k <= n-1; k++ {
		delta := float64(k) * step
		pt, _ := p.apply(base, delta)
		angles := s.Solve(pt.bike, pt.body, pt.elbow)
		rows = append(rows, SensitivityRow{
			Delta:  delta,
			Bike:   pt.bike,
			Body:   pt.body,
			Elbow:  pt.elbow,
			Angles: angles,
			Change: model.AngleResult{
				KneeExtension: difference(angles.KneeExtension, baseline.KneeExtension),
				BackAngle:     difference(angles.BackAngle, baseline.BackAngle),
				ArmpitWrist:   difference(angles.ArmpitWrist, baseline.ArmpitWrist),
			},
		})
	}
	return rows, nil
}

func difference(a, b model.Angle) model.Angle {
	ar, ok := a.Radians()
	if !ok {
		return a
	}
	br, ok := b.Radians()
	if !ok {
		return b
	}
	return model.FeasibleAngle(ar - br)
}

package kinematics

import (
	"math"

	"github.com/okian/ergofit/internal/domain/model"
	"github.com/okian/ergofit/internal/domain/units"
)

// arm is the seat, torso and bent-arm triangle.
type arm struct {
	torso float64
	// chord is the shoulder to hand distance for the bent arm.
	chord   float64
	reach   float64
	bearing float64
}

func newArm(bike model.BikeVector, body model.BodyVector, elbowDeg float64) (arm, error) {
	if !(body.Torso > 0 && body.Arm > 0) {
		return arm{}, model.ErrNonPositiveSegment
	}
	half := body.Arm / 2
	reach, bearing := bike.SeatToHand()
	return arm{
		torso:   body.Torso,
		chord:   thirdSide(half, half, units.DegToRad(elbowDeg)),
		reach:   reach,
		bearing: bearing,
	}, nil
}

func (a arm) fault() error {
	if a.reach >= a.torso+a.chord {
		return model.ErrArmUnreachable
	}
	return model.ErrArmFolded
}

func (a arm) angles() (torso, pit float64, err error) {
	torso, ok := oppositeAngle(a.torso, a.reach, a.chord)
	if !ok {
		return 0, 0, a.fault()
	}
	pit, ok = oppositeAngle(a.torso, a.chord, a.reach)
	if !ok {
		return 0, 0, a.fault()
	}
	return torso, pit, nil
}

// BackArmpit returns the back angle above the forward horizontal and the
// armpit to wrist angle for the given elbow bend in degrees.
func BackArmpit(bike model.BikeVector, body model.BodyVector, elbowDeg float64) (back, armpit model.Angle) {
	a, err := newArm(bike, body, elbowDeg)
	if err != nil {
		return model.InfeasibleAngle(err), model.InfeasibleAngle(err)
	}
	torso, pit, err := a.angles()
	if err != nil {
		return model.InfeasibleAngle(err), model.InfeasibleAngle(err)
	}
	return model.FeasibleAngle(torso + a.bearing), model.FeasibleAngle(pit)
}

// ShoulderPosition returns the shoulder coordinates implied by the back angle.
func ShoulderPosition(bike model.BikeVector, body model.BodyVector, elbowDeg float64) (x, y float64, err error) {
	back, _ := BackArmpit(bike, body, elbowDeg)
	rad, ok := back.Radians()
	if !ok {
		return 0, 0, back.Reason()
	}
	return bike.SeatX + body.Torso*math.Cos(rad), bike.SeatY + body.Torso*math.Sin(rad), nil
}

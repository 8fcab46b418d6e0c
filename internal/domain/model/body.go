package model

import (
	"fmt"
	"math"

	"github.com/okian/ergofit/internal/domain/units"
)

// BodyVector holds rider segment lengths in the same linear unit as the bike.
// AnkleDeg is the angle between the lower leg and the foot, in degrees.
// ShoulderWidth and Height are optional; zero means unknown.
type BodyVector struct {
	LowerLeg      float64 `koanf:"lower_leg"`
	UpperLeg      float64 `koanf:"upper_leg"`
	Torso         float64 `koanf:"torso"`
	Arm           float64 `koanf:"arm"`
	Foot          float64 `koanf:"foot"`
	AnkleDeg      float64 `koanf:"ankle_deg"`
	ShoulderWidth float64 `koanf:"shoulder_width"`
	Height        float64 `koanf:"height"`
}

// BodyFromRow builds a BodyVector from six or eight values:
// [lower_leg, upper_leg, torso, arm, foot, ankle_deg(, shoulder_width, height)].
func BodyFromRow(row []float64) (BodyVector, error) {
	if len(row) != BodyColumns && len(row) != ExtendedBodyColumns {
		return BodyVector{}, fmt.Errorf("body row has %d values, want %d or %d: %w",
			len(row), BodyColumns, ExtendedBodyColumns, ErrShapeMismatch)
	}
	b := BodyVector{
		LowerLeg: row[0],
		UpperLeg: row[1],
		Torso:    row[2],
		Arm:      row[3],
		Foot:     row[4],
		AnkleDeg: row[5],
	}
	if len(row) == ExtendedBodyColumns {
		b.ShoulderWidth = row[6]
		b.Height = row[7]
	}
	return b, b.Validate()
}

// Row returns the extended eight-value form.
func (b BodyVector) Row() []float64 {
	return []float64{b.LowerLeg, b.UpperLeg, b.Torso, b.Arm, b.Foot, b.AnkleDeg, b.ShoulderWidth, b.Height}
}

// Validate rejects non-finite values. Zero or negative segments are not an
// input error; they make the affected angles undefined.
func (b BodyVector) Validate() error {
	for _, v := range b.Row() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("body vector %v: %w", b.Row(), ErrInvalidInput)
		}
	}
	return nil
}

// AnkleRad returns the ankle angle in radians.
func (b BodyVector) AnkleRad() float64 { return units.DegToRad(b.AnkleDeg) }

// NeckHead derives the neck-to-head segment from total height.
func (b BodyVector) NeckHead() (float64, bool) {
	if b.Height <= 0 {
		return 0, false
	}
	nh := b.Height - b.LowerLeg - b.UpperLeg - b.Torso
	if nh <= 0 {
		return 0, false
	}
	return nh, true
}

// Package units converts between the angle and length units used at the
// edges of the fit pipeline. Solvers work in radians; callers and reports
// work in degrees.
package units

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MMPerInch is the exact millimetre length of one inch.
const MMPerInch = 25.4

const (
	radPerDeg = math.Pi / 180
	degPerRad = 180 / math.Pi
)

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * radPerDeg }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * degPerRad }

// InchesToMM converts inches to millimetres.
func InchesToMM(in float64) float64 { return in * MMPerInch }

// MMToInches converts millimetres to inches.
func MMToInches(mm float64) float64 { return mm / MMPerInch }

// DegsToRads returns a new slice holding degs converted to radians.
func DegsToRads(degs []float64) []float64 {
	out := make([]float64, len(degs))
	floats.ScaleTo(out, radPerDeg, degs)
	return out
}

// RadsToDegs returns a new slice holding rads converted to degrees.
func RadsToDegs(rads []float64) []float64 {
	out := make([]float64, len(rads))
	floats.ScaleTo(out, degPerRad, rads)
	return out
}

// NormalizeRad wraps an angle into [0, 2π).
func NormalizeRad(rad float64) float64 {
	r := math.Mod(rad, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}

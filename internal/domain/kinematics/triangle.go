package kinematics

import "math"

// cosTolerance absorbs rounding when a triangle is exactly degenerate.
const cosTolerance = 1e-9

// oppositeAngle returns the angle opposite side c in the triangle (a, b, c).
// It reports false when a side is not positive or the sides do not close.
// Every feasibility decision in the package goes through this function.
func oppositeAngle(a, b, c float64) (float64, bool) {
	if !(a > 0 && b > 0 && c > 0) {
		return 0, false
	}
	cos := (a*a + b*b - c*c) / (2 * a * b)
	if cos < -1-cosTolerance || cos > 1+cosTolerance || math.IsNaN(cos) {
		return 0, false
	}
	return math.Acos(clamp(cos, -1, 1)), true
}

// thirdSide returns the side opposite gamma in a triangle with sides a and b.
func thirdSide(a, b, gamma float64) float64 {
	sq := a*a + b*b - 2*a*b*math.Cos(gamma)
	if sq < 0 {
		return 0
	}
	return math.Sqrt(sq)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

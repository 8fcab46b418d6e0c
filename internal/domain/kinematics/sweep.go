package kinematics

import (
	"math"

	"github.com/okian/ergofit/internal/domain/model"
	"github.com/okian/ergofit/internal/domain/units"
)

// DefaultSweepStepDeg is the crank sweep resolution in degrees.
const DefaultSweepStepDeg = 1.0

// Option configures a Solver.
type Option func(*Solver)

// WithSweepStep sets the crank sweep step in degrees. Values outside (0, 360]
// are ignored.
func WithSweepStep(deg float64) Option {
	return func(s *Solver) {
		if deg > 0 && deg <= 360 {
			s.stepDeg = deg
		}
	}
}

// Solver evaluates the full angle pipeline for a bike and rider. It is
// immutable after construction and safe for concurrent use.
type Solver struct {
	stepDeg float64
	grid    []float64
}

// NewSolver creates a solver with the given options.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{stepDeg: DefaultSweepStepDeg}
	for _, opt := range opts {
		opt(s)
	}
	n := int(math.Ceil(360 / s.stepDeg))
	s.grid = make([]float64, n)
	for i := range s.grid {
		s.grid[i] = units.DegToRad(float64(i) * 360 / float64(n))
	}
	return s
}

// StepDeg returns the sweep step in degrees.
func (s *Solver) StepDeg() float64 { return s.stepDeg }

// Samples returns how many crank angles one sweep evaluates.
func (s *Solver) Samples() int { return len(s.grid) + 2 }

// MinKneeExtension sweeps the crank through a full turn and returns the
// smallest knee flexion, which is the most extended leg position. The two
// crank angles where the hip to pedal distance peaks are always sampled. Any
// infeasible sample makes the whole sweep infeasible.
func (s *Solver) MinKneeExtension(bike model.BikeVector, body model.BodyVector) model.Angle {
	l, err := newLeg(bike, body)
	if err != nil {
		return model.InfeasibleAngle(err)
	}
	far, near := l.criticalAngles()
	best := model.MinAngle(l.kneeAt(far), l.kneeAt(near))
	for _, crank := range s.grid {
		if !best.Feasible() {
			return best
		}
		best = model.MinAngle(best, l.kneeAt(crank))
	}
	return best
}

// Solve returns the knee extension, back and armpit to wrist angles.
func (s *Solver) Solve(bike model.BikeVector, body model.BodyVector, elbowDeg float64) model.AngleResult {
	back, armpit := BackArmpit(bike, body, elbowDeg)
	return model.AngleResult{
		KneeExtension: s.MinKneeExtension(bike, body),
		BackAngle:     back,
		ArmpitWrist:   armpit,
	}
}

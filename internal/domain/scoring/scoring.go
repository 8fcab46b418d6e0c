// Package scoring rates solved joint angles against per-discipline targets.
package scoring

import (
	"math"
	"strconv"

	"github.com/okian/ergofit/internal/domain/model"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Probability is a fit probability in [0, 1], or undefined when the angle
// it was computed from is undefined.
type Probability struct {
	v  float64
	ok bool
}

// DefinedProbability wraps a probability value.
func DefinedProbability(v float64) Probability { return Probability{v: v, ok: true} }

// Value returns the probability and whether it is defined.
func (p Probability) Value() (float64, bool) { return p.v, p.ok }

// Defined reports whether the probability holds a value.
func (p Probability) Defined() bool { return p.ok }

func (p Probability) String() string {
	if !p.ok {
		return "undefined"
	}
	return strconv.FormatFloat(p.v, 'f', 4, 64)
}

// FitProbability returns the two-sided tail probability of x under the
// reference normal distribution. It is 1 at the mean and falls towards 0.
func FitProbability(x float64, ref Reference) float64 {
	z := math.Abs(x-ref.Mean) / ref.SD
	return 2 * (1 - distuv.UnitNormal.CDF(z))
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithTable sets the use case table. A nil table is ignored.
func WithTable(t *Table) Option {
	return func(s *Scorer) {
		if t != nil {
			s.table = t
		}
	}
}

// Scorer scores angles against a use case table.
type Scorer struct {
	table *Table
}

// NewScorer creates a scorer backed by the default table unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{table: DefaultTable()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the scorer's use case table.
func (s *Scorer) Table() *Table { return s.table }

// Score rates one angle. A joint the use case has no reference for, or an
// undefined angle, yields an undefined probability.
func (s *Scorer) Score(discipline string, joint Joint, a model.Angle) (Probability, error) {
	uc, err := s.table.Lookup(discipline)
	if err != nil {
		return Probability{}, err
	}
	return scoreAngle(uc, joint, a), nil
}

func scoreAngle(uc UseCase, joint Joint, a model.Angle) Probability {
	ref, ok := uc.Reference(joint)
	if !ok {
		return Probability{}
	}
	deg, ok := a.Degrees()
	if !ok {
		return Probability{}
	}
	return DefinedProbability(FitProbability(deg, ref))
}

// FitScores holds the probabilities for one evaluation.
type FitScores struct {
	Discipline  string
	Knee        Probability
	Back        Probability
	ArmpitWrist Probability
	Elbow       Probability
	Ankle       Probability
}

// Overall is the mean of the knee, back and armpit to wrist probabilities,
// undefined if any of them is.
func (f FitScores) Overall() Probability {
	vals := make([]float64, 0, 3)
	for _, p := range []Probability{f.Knee, f.Back, f.ArmpitWrist} {
		v, ok := p.Value()
		if !ok {
			return Probability{}
		}
		vals = append(vals, v)
	}
	return DefinedProbability(stat.Mean(vals, nil))
}

// ScoreAngles rates the three solved angles and the elbow and ankle inputs.
func (s *Scorer) ScoreAngles(discipline string, r model.AngleResult, elbowDeg, ankleDeg float64) (FitScores, error) {
	uc, err := s.table.Lookup(discipline)
	if err != nil {
		return FitScores{}, err
	}
	return FitScores{
		Discipline:  uc.Name,
		Knee:        scoreAngle(uc, JointKnee, r.KneeExtension),
		Back:        scoreAngle(uc, JointBack, r.BackAngle),
		ArmpitWrist: scoreAngle(uc, JointArmpitWrist, r.ArmpitWrist),
		Elbow:       scoreAngle(uc, JointElbow, model.FeasibleDegrees(elbowDeg)),
		Ankle:       scoreAngle(uc, JointAnkle, model.FeasibleDegrees(ankleDeg)),
	}, nil
}

package scoring

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Joint names a scored angle.
type Joint string

const (
	JointKnee        Joint = "knee"
	JointBack        Joint = "back"
	JointArmpitWrist Joint = "armpit_wrist"
	JointElbow       Joint = "elbow"
	JointAnkle       Joint = "ankle"
	JointHip         Joint = "hip"
)

// Joints lists every joint a use case may reference.
var Joints = []Joint{JointKnee, JointBack, JointArmpitWrist, JointElbow, JointAnkle, JointHip}

// Disciplines shipped in the default table.
const (
	Road    = "road"
	MTB     = "mtb"
	TT      = "tt"
	Commute = "commute"
)

// Reference is the target distribution of one joint angle, in degrees.
type Reference struct {
	Mean float64 `koanf:"mean"`
	SD   float64 `koanf:"sd"`
}

// Validate checks that the reference is usable by the scorer.
func (r Reference) Validate() error {
	if math.IsNaN(r.Mean) || math.IsInf(r.Mean, 0) || !(r.SD > 0) || math.IsInf(r.SD, 0) {
		return fmt.Errorf("mean %g, sd %g: %w", r.Mean, r.SD, ErrInvalidReference)
	}
	return nil
}

// UseCase is the set of joint references for one discipline.
type UseCase struct {
	Name string
	refs map[Joint]Reference
}

// Reference returns the reference for a joint, if the use case has one.
func (u UseCase) Reference(j Joint) (Reference, bool) {
	r, ok := u.refs[j]
	return r, ok
}

// Table maps discipline names to use cases. It is never modified after
// construction, so one table can be shared by any number of goroutines.
type Table struct {
	cases map[string]UseCase
}

func shared(knee, back, armpit Reference) map[Joint]Reference {
	return map[Joint]Reference{
		JointKnee:        knee,
		JointBack:        back,
		JointArmpitWrist: armpit,
		JointElbow:       {Mean: 160, SD: 10},
		JointAnkle:       {Mean: 100, SD: 5},
		JointHip:         {Mean: 60, SD: 5},
	}
}

// DefaultTable returns the built-in road, mtb, tt and commute use cases.
func DefaultTable() *Table {
	return &Table{cases: map[string]UseCase{
		Road:    {Name: Road, refs: shared(Reference{37.5, 10}, Reference{45, 5}, Reference{90, 5})},
		MTB:     {Name: MTB, refs: shared(Reference{37.5, 10}, Reference{50, 5}, Reference{90, 5})},
		TT:      {Name: TT, refs: shared(Reference{37.5, 2.5}, Reference{45, 5}, Reference{90, 5})},
		Commute: {Name: Commute, refs: shared(Reference{37.5, 10}, Reference{52, 5}, Reference{85, 5})},
	}}
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// WithOverrides returns a new table where each listed joint reference
// replaces the existing one. A discipline not yet in the table is added with
// only the listed joints. The receiver is left unchanged.
func (t *Table) WithOverrides(overrides map[string]map[string]Reference) (*Table, error) {
	out := &Table{cases: make(map[string]UseCase, len(t.cases)+len(overrides))}
	for name, uc := range t.cases {
		out.cases[name] = UseCase{Name: name, refs: maps.Clone(uc.refs)}
	}
	for rawName, joints := range overrides {
		name := normalize(rawName)
		if name == "" {
			return nil, fmt.Errorf("empty discipline name: %w", ErrInvalidReference)
		}
		uc, ok := out.cases[name]
		if !ok {
			uc = UseCase{Name: name, refs: make(map[Joint]Reference, len(joints))}
		}
		for rawJoint, ref := range joints {
			j := Joint(normalize(rawJoint))
			if !slices.Contains(Joints, j) {
				return nil, fmt.Errorf("%s.%s: unknown joint: %w", name, rawJoint, ErrInvalidReference)
			}
			if err := ref.Validate(); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, j, err)
			}
			uc.refs[j] = ref
		}
		out.cases[name] = uc
	}
	return out, nil
}

// Lookup returns the use case for a discipline, ignoring case.
func (t *Table) Lookup(discipline string) (UseCase, error) {
	uc, ok := t.cases[normalize(discipline)]
	if !ok {
		return UseCase{}, fmt.Errorf("%q: %w", discipline, ErrUnknownDiscipline)
	}
	return uc, nil
}

// Disciplines returns the table's discipline names in sorted order.
func (t *Table) Disciplines() []string {
	return slices.Sorted(maps.Keys(t.cases))
}

package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/ergofit/internal/domain/model"
	"github.com/okian/ergofit/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func value(p scoring.Probability) float64 {
	v, ok := p.Value()
	So(ok, ShouldBeTrue)
	return v
}

func TestFitProbability(t *testing.T) {
	Convey("Given a reference of 45 ± 5 degrees", t, func() {
		ref := scoring.Reference{Mean: 45, SD: 5}

		So(scoring.FitProbability(45, ref), ShouldAlmostEqual, 1, 1e-12)
		So(scoring.FitProbability(50, ref), ShouldAlmostEqual, 0.3173, 1e-4)
		So(scoring.FitProbability(40, ref), ShouldAlmostEqual, 0.3173, 1e-4)
		So(scoring.FitProbability(60, ref), ShouldAlmostEqual, 0.0027, 1e-4)
		So(scoring.FitProbability(30, ref), ShouldAlmostEqual, scoring.FitProbability(60, ref), 1e-12)
	})
}

func TestTable(t *testing.T) {
	Convey("Given the default table", t, func() {
		table := scoring.DefaultTable()

		Convey("It carries the four disciplines", func() {
			So(table.Disciplines(), ShouldResemble, []string{"commute", "mtb", "road", "tt"})
		})

		Convey("Lookup ignores case", func() {
			uc, err := table.Lookup("  Commute ")
			So(err, ShouldBeNil)
			back, ok := uc.Reference(scoring.JointBack)
			So(ok, ShouldBeTrue)
			So(back, ShouldResemble, scoring.Reference{Mean: 52, SD: 5})
			pit, _ := uc.Reference(scoring.JointArmpitWrist)
			So(pit.Mean, ShouldEqual, 85)
		})

		Convey("Time trial has the tight knee target", func() {
			uc, _ := table.Lookup(scoring.TT)
			knee, _ := uc.Reference(scoring.JointKnee)
			So(knee.SD, ShouldEqual, 2.5)
			pit, _ := uc.Reference(scoring.JointArmpitWrist)
			So(pit, ShouldResemble, scoring.Reference{Mean: 90, SD: 5})
		})

		Convey("Unknown disciplines are an error", func() {
			_, err := table.Lookup("gravel")
			So(errors.Is(err, scoring.ErrUnknownDiscipline), ShouldBeTrue)
		})

		Convey("Overrides replace single joints without touching the default table", func() {
			over, err := table.WithOverrides(map[string]map[string]scoring.Reference{
				"Road":   {"knee": {Mean: 35, SD: 8}},
				"gravel": {"knee": {Mean: 40, SD: 10}, "back": {Mean: 48, SD: 5}},
			})
			So(err, ShouldBeNil)

			road, _ := over.Lookup(scoring.Road)
			knee, _ := road.Reference(scoring.JointKnee)
			So(knee.Mean, ShouldEqual, 35)
			back, _ := road.Reference(scoring.JointBack)
			So(back.Mean, ShouldEqual, 45)

			orig, _ := table.Lookup(scoring.Road)
			knee, _ = orig.Reference(scoring.JointKnee)
			So(knee.Mean, ShouldEqual, 37.5)

			gravel, err := over.Lookup("gravel")
			So(err, ShouldBeNil)
			_, ok := gravel.Reference(scoring.JointArmpitWrist)
			So(ok, ShouldBeFalse)
		})

		Convey("Bad overrides are rejected", func() {
			_, err := table.WithOverrides(map[string]map[string]scoring.Reference{"road": {"knee": {Mean: 35}}})
			So(errors.Is(err, scoring.ErrInvalidReference), ShouldBeTrue)
			_, err = table.WithOverrides(map[string]map[string]scoring.Reference{"road": {"wrist": {Mean: 35, SD: 1}}})
			So(errors.Is(err, scoring.ErrInvalidReference), ShouldBeTrue)
		})
	})
}

func TestScorer(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := scoring.NewScorer()
		So(s.Table(), ShouldNotBeNil)

		Convey("Angles at the mean score 1", func() {
			p, err := s.Score("road", scoring.JointBack, model.FeasibleDegrees(45))
			So(err, ShouldBeNil)
			So(value(p), ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("Undefined angles give undefined probabilities", func() {
			p, err := s.Score("road", scoring.JointBack, model.InfeasibleAngle(model.ErrArmUnreachable))
			So(err, ShouldBeNil)
			So(p.Defined(), ShouldBeFalse)
			So(p.String(), ShouldEqual, "undefined")
		})

		Convey("Unknown disciplines are an error", func() {
			_, err := s.Score("bmx", scoring.JointKnee, model.FeasibleDegrees(40))
			So(errors.Is(err, scoring.ErrUnknownDiscipline), ShouldBeTrue)
			_, err = s.ScoreAngles("bmx", model.AngleResult{}, 150, 100)
			So(errors.Is(err, scoring.ErrUnknownDiscipline), ShouldBeTrue)
		})

		Convey("ScoreAngles rates every joint", func() {
			r := model.AngleResult{
				KneeExtension: model.FeasibleDegrees(47.5),
				BackAngle:     model.FeasibleDegrees(45),
				ArmpitWrist:   model.FeasibleDegrees(95),
			}
			f, err := s.ScoreAngles("ROAD", r, 160, 110)
			So(err, ShouldBeNil)
			So(f.Discipline, ShouldEqual, "road")
			So(value(f.Knee), ShouldAlmostEqual, 0.3173, 1e-4)
			So(value(f.Back), ShouldAlmostEqual, 1, 1e-9)
			So(value(f.ArmpitWrist), ShouldAlmostEqual, 0.3173, 1e-4)
			So(value(f.Elbow), ShouldAlmostEqual, 1, 1e-9)
			So(value(f.Ankle), ShouldAlmostEqual, 0.0455, 1e-4)
			So(value(f.Overall()), ShouldAlmostEqual, (0.3173*2+1)/3, 1e-4)
		})

		Convey("Overall is undefined when any angle is", func() {
			r := model.AngleResult{
				KneeExtension: model.FeasibleDegrees(37.5),
				BackAngle:     model.FeasibleDegrees(45),
			}
			f, err := s.ScoreAngles("road", r, 160, 100)
			So(err, ShouldBeNil)
			So(f.ArmpitWrist.Defined(), ShouldBeFalse)
			So(f.Overall().Defined(), ShouldBeFalse)
		})

		Convey("A custom table is used", func() {
			table, err := scoring.DefaultTable().WithOverrides(map[string]map[string]scoring.Reference{
				"road": {"back": {Mean: 30, SD: 5}},
			})
			So(err, ShouldBeNil)
			custom := scoring.NewScorer(scoring.WithTable(table))
			p, _ := custom.Score("road", scoring.JointBack, model.FeasibleDegrees(30))
			So(value(p), ShouldAlmostEqual, 1, 1e-9)
		})
	})
}

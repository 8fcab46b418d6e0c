package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/ergofit/internal/config"
	"github.com/okian/ergofit/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.CacheSize, convey.ShouldEqual, 4096)
			convey.So(cfg.SweepStepDeg, convey.ShouldEqual, 1)
			convey.So(cfg.ElbowAngleDeg, convey.ShouldEqual, 160)
			convey.So(cfg.Discipline, convey.ShouldEqual, scoring.Road)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"log level", func(c *config.Config) { c.LogLevel = "loud" }},
			{"log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"worker count", func(c *config.Config) { c.WorkerCount = 0 }},
			{"queue size", func(c *config.Config) { c.QueueSize = -1 }},
			{"cache size", func(c *config.Config) { c.CacheSize = -1 }},
			{"sweep step", func(c *config.Config) { c.SweepStepDeg = 0 }},
			{"elbow angle", func(c *config.Config) { c.ElbowAngleDeg = 190 }},
			{"discipline", func(c *config.Config) { c.Discipline = "bmx" }},
			{"joint name", func(c *config.Config) {
				c.UseCases = map[string]map[string]config.JointReference{"road": {"wrist": {Mean: 1, SD: 1}}}
			}},
			{"joint spread", func(c *config.Config) {
				c.UseCases = map[string]map[string]config.JointReference{"road": {"knee": {Mean: 40}}}
			}},
		}
		for _, tc := range cases {
			convey.Convey("When the "+tc.name+" is invalid, validation fails", func() {
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When a new discipline is configured", func() {
			cfg.UseCases = map[string]map[string]config.JointReference{
				"Gravel": {"knee": {Mean: 40, SD: 8}, "back": {Mean: 48, SD: 5}},
			}
			cfg.Discipline = "gravel"

			convey.Convey("Then it validates and joins the table", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				table, err := cfg.Table()
				convey.So(err, convey.ShouldBeNil)
				convey.So(table.Disciplines(), convey.ShouldContain, "gravel")
				uc, err := table.Lookup("gravel")
				convey.So(err, convey.ShouldBeNil)
				ref, ok := uc.Reference(scoring.JointKnee)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(ref.Mean, convey.ShouldEqual, 40)
			})
		})
	})
}

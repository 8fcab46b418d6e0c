package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const cliInput = `
discipline: road
elbow_angle_deg: 150
body: {lower_leg: 19, upper_leg: 15.5, torso: 27, arm: 24, foot: 5.5, ankle_deg: 107}
bikes:
  - {label: current, seat_x: -9, seat_y: 27, hand_x: 16.5, hand_y: 25.5, crank_length: 7}
  - {label: too-high, seat_x: -9, seat_y: 29, hand_x: 16.5, hand_y: 25.5, crank_length: 7}
`

const cliFrames = `
elbow_angle_deg: 160
body: {lower_leg: 482.6, upper_leg: 393.7, torso: 685.8, arm: 609.6, foot: 139.7, ankle_deg: 107}
frames:
  - label: trail
    down_tube: 500
    head_tube: 100
    head_tube_angle_deg: 75
    head_tube_lower_ext: 40
    stack: 450
    seat_tube: 440
    seat_tube_angle_deg: 74
    seatpost: 200
    saddle_height: 700
    stem: 100
    stem_angle_deg: 15
    spacers: 10
    crank_length: 175
    handlebar: mtb
  - label: endurance
    down_tube: 640
    head_tube: 150
    head_tube_angle_deg: 73
    stack: 570
    seat_tube: 540
    seat_tube_angle_deg: 73.5
    seatpost: 250
    saddle_height: 720
    stem: 100
    stem_angle_deg: -6
    spacers: 20
    crank_length: 172.5
`

func writeInput(content string) string {
	f, err := os.CreateTemp("", "ergofit-cli-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
	return f.Name()
}

func TestRun(t *testing.T) {
	convey.Convey("Given the ergofit command", t, func() {
		ctx := context.Background()
		_ = os.Unsetenv("ERGOFIT_CONFIG")
		var stdout, stderr bytes.Buffer

		convey.Convey("When evaluating bikes", func() {
			path := writeInput(cliInput)
			defer func() { _ = os.Remove(path) }()

			err := run(ctx, []string{"-input", path}, &stdout, &stderr)
			convey.So(err, convey.ShouldBeNil)
			out := stdout.String()

			convey.Convey("Then a table row is printed per bike", func() {
				convey.So(out, convey.ShouldContainSubstring, "KNEE_EXTENSION")
				convey.So(out, convey.ShouldContainSubstring, "current")
				convey.So(out, convey.ShouldContainSubstring, "45.37 (0.4313)")
				convey.So(out, convey.ShouldContainSubstring, "-1.62")
			})

			convey.Convey("Then no neck segment is printed without a height", func() {
				convey.So(out, convey.ShouldNotContainSubstring, "NECK_HEAD")
			})

			convey.Convey("Then an unreachable seat prints undefined values", func() {
				var line string
				for _, l := range strings.Split(out, "\n") {
					if strings.HasPrefix(l, "too-high") {
						line = l
					}
				}
				convey.So(line, convey.ShouldContainSubstring, "undefined")
			})
		})

		convey.Convey("When the rider height is given", func() {
			path := writeInput(strings.Replace(cliInput, "ankle_deg: 107}", "ankle_deg: 107, height: 71}", 1))
			defer func() { _ = os.Remove(path) }()

			err := run(ctx, []string{"-input", path}, &stdout, &stderr)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the neck to head segment is printed", func() {
				convey.So(stdout.String(), convey.ShouldStartWith, "NECK_HEAD 9.50\n")
			})
		})

		convey.Convey("When ranking frames", func() {
			path := writeInput(cliFrames)
			defer func() { _ = os.Remove(path) }()

			err := run(ctx, []string{"-input", path, "-top", "1"}, &stdout, &stderr)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then only the best frame is ranked", func() {
				out := stdout.String()
				convey.So(out, convey.ShouldContainSubstring, "RANK")
				convey.So(out, convey.ShouldContainSubstring, "endurance")
				convey.So(out, convey.ShouldNotContainSubstring, "trail")
			})
		})

		convey.Convey("When asking for sensitivity and metrics", func() {
			path := writeInput(cliInput)
			defer func() { _ = os.Remove(path) }()

			err := run(ctx, []string{"-input", path, "-sensitivity", "seat_y", "-step", "1", "-points", "2", "-metrics"}, &stdout, &stderr)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then both sections are printed", func() {
				out := stdout.String()
				convey.So(out, convey.ShouldContainSubstring, "DELTA seat_y")
				convey.So(out, convey.ShouldContainSubstring, "+1.00")
				convey.So(out, convey.ShouldContainSubstring, "ergofit_fit_evaluations_total")
			})
		})

		convey.Convey("When the discipline is unknown", func() {
			path := writeInput(cliInput)
			defer func() { _ = os.Remove(path) }()

			err := run(ctx, []string{"-input", path, "-discipline", "bmx"}, &stdout, &stderr)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "bmx")
		})

		convey.Convey("When no input is given", func() {
			err := run(ctx, nil, &stdout, &stderr)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(stderr.String(), convey.ShouldContainSubstring, "-input")
		})

		convey.Convey("When help is requested", func() {
			err := run(ctx, []string{"-h"}, &stdout, &stderr)
			convey.So(errors.Is(err, flag.ErrHelp), convey.ShouldBeTrue)
		})
	})
}

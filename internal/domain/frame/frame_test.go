package frame_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/ergofit/internal/domain/frame"
	"github.com/okian/ergofit/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func roadFrame() model.FrameGeometry {
	return model.FrameGeometry{
		DownTube:         640,
		HeadTube:         150,
		HeadTubeAngleDeg: 73,
		Stack:            570,
		SeatTube:         540,
		SeatTubeAngleDeg: 73.5,
		Seatpost:         250,
		SaddleHeight:     720,
		Stem:             100,
		StemAngleDeg:     -6,
		Spacers:          20,
		CrankLength:      172.5,
	}
}

func TestInterfacePoints(t *testing.T) {
	Convey("Given a road frame with drop bars", t, func() {
		f := roadFrame()

		Convey("The head tube top sits at stack height", func() {
			x, y, err := frame.HeadTubeTop(f)
			So(err, ShouldBeNil)
			So(x, ShouldAlmostEqual, 433.2726, 1e-3)
			So(y, ShouldEqual, 570)
		})

		Convey("The bike vector uses the forward-positive convention", func() {
			b, err := frame.InterfacePoints(f)
			So(err, ShouldBeNil)
			So(b.SeatX, ShouldAlmostEqual, -204.4910, 1e-3)
			So(b.SeatY, ShouldAlmostEqual, 690.3502, 1e-3)
			So(b.HandX, ShouldAlmostEqual, 609.2426, 1e-3)
			So(b.HandY, ShouldAlmostEqual, 681.6699, 1e-3)
			So(b.CrankLength, ShouldEqual, 172.5)
		})

		Convey("Handlebar style only moves the hands", func() {
			hx, hy, err := frame.BarClamp(f)
			So(err, ShouldBeNil)

			f.Handlebar = model.StyleMTB
			mtb, err := frame.InterfacePoints(f)
			So(err, ShouldBeNil)
			So(mtb.HandX, ShouldAlmostEqual, hx-20, 1e-9)
			So(mtb.HandY, ShouldAlmostEqual, hy, 1e-9)

			f.Handlebar = model.StyleBullhorn
			bull, err := frame.InterfacePoints(f)
			So(err, ShouldBeNil)
			So(bull.HandX, ShouldAlmostEqual, hx+100, 1e-9)
			So(bull.HandY, ShouldAlmostEqual, hy+10, 1e-9)
			So(bull.SeatX, ShouldEqual, mtb.SeatX)
		})

		Convey("Spacers raise the bar clamp along the steerer", func() {
			_, low, _ := frame.BarClamp(f)
			f.Spacers += 10
			_, high, _ := frame.BarClamp(f)
			So(high-low, ShouldAlmostEqual, 10*math.Sin(73*math.Pi/180), 1e-9)
		})

		Convey("A short down tube is degenerate", func() {
			f.DownTube = 300
			_, err := frame.InterfacePoints(f)
			So(errors.Is(err, model.ErrDegenerateFrame), ShouldBeTrue)
		})

		Convey("A missing saddle height is invalid", func() {
			f.SaddleHeight = 0
			_, err := frame.InterfacePoints(f)
			So(errors.Is(err, model.ErrInvalidFrame), ShouldBeTrue)
		})
	})
}

func TestInterfacePointsBatch(t *testing.T) {
	Convey("Given several frames", t, func() {
		mtb := model.FrameGeometry{
			DownTube: 500, HeadTube: 100, HeadTubeAngleDeg: 75, HeadTubeLowerExt: 40,
			Stack: 450, SeatTube: 440, SeatTubeAngleDeg: 74, Seatpost: 200,
			SaddleHeight: 700, Stem: 100, StemAngleDeg: 15, Spacers: 10,
			CrankLength: 175, Handlebar: model.StyleMTB,
		}
		frames := []model.FrameGeometry{roadFrame(), mtb}

		Convey("The slice form keeps order", func() {
			bikes, err := frame.InterfacePointsAll(frames)
			So(err, ShouldBeNil)
			So(len(bikes), ShouldEqual, 2)
			So(bikes[1].HandX, ShouldAlmostEqual, 363.1483, 1e-3)
			So(bikes[1].HandY, ShouldAlmostEqual, 493.4667, 1e-3)
			So(bikes[1].SeatX, ShouldAlmostEqual, -192.9461, 1e-3)
		})

		Convey("The slice form names the failing frame", func() {
			frames[1].DownTube = 100
			_, err := frame.InterfacePointsAll(frames)
			So(errors.Is(err, model.ErrDegenerateFrame), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "frame 1")
		})

		Convey("The matrix form matches the slice form", func() {
			data := append(roadFrame().Row(), mtb.Row()...)
			out, err := frame.InterfacePointsMatrix(mat.NewDense(2, model.FrameColumns, data))
			So(err, ShouldBeNil)
			bikes, _ := frame.InterfacePointsAll(frames)
			for i, b := range bikes {
				for j, v := range b.Row() {
					So(out.At(i, j), ShouldAlmostEqual, v, 1e-9)
				}
			}
		})

		Convey("The matrix form rejects the wrong width", func() {
			_, err := frame.InterfacePointsMatrix(mat.NewDense(2, 13, nil))
			So(errors.Is(err, model.ErrShapeMismatch), ShouldBeTrue)
		})
	})
}

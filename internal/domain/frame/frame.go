// Package frame derives rider contact points from frame and cockpit geometry.
package frame

import (
	"fmt"
	"math"

	"github.com/okian/ergofit/internal/domain/model"
	"github.com/okian/ergofit/internal/domain/units"
	"gonum.org/v1/gonum/mat"
)

// Cockpit constants in millimetres.
const (
	BearingStack  = 15.0
	StemExtension = 40.0
)

// handOffset is the hand position relative to the bar clamp, in millimetres.
type handOffset struct{ dx, dy float64 }

var handOffsets = map[model.HandlebarStyle]handOffset{
	model.StyleDrop:     {dx: 100, dy: 20},
	model.StyleMTB:      {dx: -20, dy: 0},
	model.StyleBullhorn: {dx: 100, dy: 10},
}

// HeadTubeTop returns the top of the head tube relative to the bottom bracket.
func HeadTubeTop(f model.FrameGeometry) (x, y float64, err error) {
	hta := units.DegToRad(f.HeadTubeAngleDeg)
	functional := f.HeadTube - f.HeadTubeLowerExt
	dy := f.Stack - functional*math.Sin(hta)
	if f.DownTube*f.DownTube < dy*dy {
		return 0, 0, fmt.Errorf("down tube %g cannot reach height %g: %w", f.DownTube, dy, model.ErrDegenerateFrame)
	}
	dx := math.Sqrt(f.DownTube*f.DownTube - dy*dy)
	return dx - functional*math.Cos(hta), f.Stack, nil
}

// BarClamp returns the handlebar clamp position relative to the bottom bracket.
func BarClamp(f model.FrameGeometry) (x, y float64, err error) {
	htx, hty, err := HeadTubeTop(f)
	if err != nil {
		return 0, 0, err
	}
	hta := units.DegToRad(f.HeadTubeAngleDeg)
	above := BearingStack + f.Spacers + StemExtension/2
	scx := htx - above*math.Cos(hta)
	scy := hty + above*math.Sin(hta)

	theta := math.Pi/2 - hta - units.DegToRad(f.StemAngleDeg)
	return scx + f.Stem*math.Cos(theta), scy + f.Stem*math.Sin(theta), nil
}

// InterfacePoints converts a frame into a bike vector in millimetres.
func InterfacePoints(f model.FrameGeometry) (model.BikeVector, error) {
	if err := f.Validate(); err != nil {
		return model.BikeVector{}, err
	}
	hbx, hby, err := BarClamp(f)
	if err != nil {
		return model.BikeVector{}, err
	}
	off, ok := handOffsets[f.Handlebar]
	if !ok {
		off = handOffsets[model.StyleDrop]
	}
	sta := units.DegToRad(f.SeatTubeAngleDeg)
	return model.BikeVector{
		SeatX:       -f.SaddleHeight * math.Cos(sta),
		SeatY:       f.SaddleHeight * math.Sin(sta),
		HandX:       hbx + off.dx,
		HandY:       hby + off.dy,
		CrankLength: f.CrankLength,
	}, nil
}

// InterfacePointsAll converts every frame. It stops at the first frame that
// fails and reports its index.
func InterfacePointsAll(frames []model.FrameGeometry) ([]model.BikeVector, error) {
	out := make([]model.BikeVector, len(frames))
	for i, f := range frames {
		b, err := InterfacePoints(f)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// InterfacePointsMatrix converts an n×14 frame matrix into an n×5 bike matrix.
func InterfacePointsMatrix(m mat.Matrix) (*mat.Dense, error) {
	frames, err := model.FramesFromMatrix(m)
	if err != nil {
		return nil, err
	}
	bikes, err := InterfacePointsAll(frames)
	if err != nil {
		return nil, err
	}
	return model.BikesToMatrix(bikes), nil
}

package model

import (
	"fmt"
	"math"
	"strings"
)

// HandlebarStyle selects the hand offset applied in front of the bar clamp.
type HandlebarStyle int

const (
	StyleDrop HandlebarStyle = iota
	StyleMTB
	StyleBullhorn
)

const styleTolerance = 0.25

// StyleFromCode maps a numeric style code to a style. Codes near 1 are mtb,
// codes near 2 are bullhorn, everything else is drop.
func StyleFromCode(code float64) HandlebarStyle {
	switch {
	case math.Abs(code-1) <= styleTolerance:
		return StyleMTB
	case math.Abs(code-2) <= styleTolerance:
		return StyleBullhorn
	default:
		return StyleDrop
	}
}

// ParseHandlebarStyle parses a style name, ignoring case. An empty name is drop.
func ParseHandlebarStyle(s string) (HandlebarStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop", "road":
		return StyleDrop, nil
	case "mtb", "flat":
		return StyleMTB, nil
	case "bullhorn":
		return StyleBullhorn, nil
	default:
		return StyleDrop, fmt.Errorf("handlebar style %q: %w", s, ErrInvalidFrame)
	}
}

func (s HandlebarStyle) String() string {
	switch s {
	case StyleMTB:
		return "mtb"
	case StyleBullhorn:
		return "bullhorn"
	default:
		return "drop"
	}
}

// UnmarshalText lets config decoders accept style names.
func (s *HandlebarStyle) UnmarshalText(text []byte) error {
	v, err := ParseHandlebarStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText renders the style name.
func (s HandlebarStyle) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FrameGeometry describes a frame and its cockpit. Lengths are millimetres,
// angles are degrees.
type FrameGeometry struct {
	DownTube         float64        `koanf:"down_tube"`
	HeadTube         float64        `koanf:"head_tube"`
	HeadTubeAngleDeg float64        `koanf:"head_tube_angle_deg"`
	HeadTubeLowerExt float64        `koanf:"head_tube_lower_ext"`
	Stack            float64        `koanf:"stack"`
	SeatTube         float64        `koanf:"seat_tube"`
	SeatTubeAngleDeg float64        `koanf:"seat_tube_angle_deg"`
	Seatpost         float64        `koanf:"seatpost"`
	SaddleHeight     float64        `koanf:"saddle_height"`
	Stem             float64        `koanf:"stem"`
	StemAngleDeg     float64        `koanf:"stem_angle_deg"`
	Spacers          float64        `koanf:"spacers"`
	CrankLength      float64        `koanf:"crank_length"`
	Handlebar        HandlebarStyle `koanf:"handlebar"`
}

// FrameFromRow builds a frame from its fourteen-column row form. The last
// column is a numeric handlebar style code.
func FrameFromRow(row []float64) (FrameGeometry, error) {
	if len(row) != FrameColumns {
		return FrameGeometry{}, fmt.Errorf("frame row has %d values, want %d: %w", len(row), FrameColumns, ErrShapeMismatch)
	}
	f := FrameGeometry{
		DownTube:         row[0],
		HeadTube:         row[1],
		HeadTubeAngleDeg: row[2],
		HeadTubeLowerExt: row[3],
		Stack:            row[4],
		SeatTube:         row[5],
		SeatTubeAngleDeg: row[6],
		Seatpost:         row[7],
		SaddleHeight:     row[8],
		Stem:             row[9],
		StemAngleDeg:     row[10],
		Spacers:          row[11],
		CrankLength:      row[12],
		Handlebar:        StyleFromCode(row[13]),
	}
	return f, nil
}

// Row returns the fourteen-column row form.
func (f FrameGeometry) Row() []float64 {
	return []float64{
		f.DownTube, f.HeadTube, f.HeadTubeAngleDeg, f.HeadTubeLowerExt, f.Stack,
		f.SeatTube, f.SeatTubeAngleDeg, f.Seatpost, f.SaddleHeight, f.Stem,
		f.StemAngleDeg, f.Spacers, f.CrankLength, float64(f.Handlebar),
	}
}

// Validate rejects non-finite values and non-positive lengths that the
// interface point solve depends on.
func (f FrameGeometry) Validate() error {
	for _, v := range f.Row() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value: %w", ErrInvalidFrame)
		}
	}
	required := []struct {
		name string
		v    float64
	}{
		{"down_tube", f.DownTube},
		{"head_tube", f.HeadTube},
		{"stack", f.Stack},
		{"saddle_height", f.SaddleHeight},
		{"crank_length", f.CrankLength},
	}
	for _, r := range required {
		if r.v <= 0 {
			return fmt.Errorf("%s must be positive, got %g: %w", r.name, r.v, ErrInvalidFrame)
		}
	}
	if f.Stem < 0 || f.Spacers < 0 {
		return fmt.Errorf("stem and spacers must not be negative: %w", ErrInvalidFrame)
	}
	return nil
}

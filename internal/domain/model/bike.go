// Package model contains the value types passed between the solvers.
//
// All coordinates share one convention: the bottom bracket is the origin,
// +x points forward and +y points up. A saddle behind the bottom bracket
// therefore has a negative SeatX.
package model

import (
	"fmt"
	"math"
)

// BikeVector holds the rider contact points of a bicycle in one linear unit.
type BikeVector struct {
	SeatX       float64 `koanf:"seat_x"`
	SeatY       float64 `koanf:"seat_y"`
	HandX       float64 `koanf:"hand_x"`
	HandY       float64 `koanf:"hand_y"`
	CrankLength float64 `koanf:"crank_length"`
}

// BikeFromRow builds a BikeVector from [seat_x, seat_y, hand_x, hand_y, crank_length].
func BikeFromRow(row []float64) (BikeVector, error) {
	if len(row) != BikeColumns {
		return BikeVector{}, fmt.Errorf("bike row has %d values, want %d: %w", len(row), BikeColumns, ErrShapeMismatch)
	}
	b := BikeVector{SeatX: row[0], SeatY: row[1], HandX: row[2], HandY: row[3], CrankLength: row[4]}
	return b, b.Validate()
}

// Row returns the vector in column order.
func (b BikeVector) Row() []float64 {
	return []float64{b.SeatX, b.SeatY, b.HandX, b.HandY, b.CrankLength}
}

// Validate rejects non-finite values.
func (b BikeVector) Validate() error {
	for _, v := range b.Row() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bike vector %v: %w", b.Row(), ErrInvalidInput)
		}
	}
	return nil
}

// SeatDistance is the straight-line distance from the bottom bracket to the seat.
func (b BikeVector) SeatDistance() float64 {
	return math.Hypot(b.SeatX, b.SeatY)
}

// SeatToHand returns the seat-to-hand distance and its bearing from the forward horizontal in radians.
func (b BikeVector) SeatToHand() (dist, bearing float64) {
	dx, dy := b.HandX-b.SeatX, b.HandY-b.SeatY
	return math.Hypot(dx, dy), math.Atan2(dy, dx)
}

// ContactOffsets moves the saddle and bar contact points to the joints that
// actually drive the solve: the hip socket and the sole of the shoe.
type ContactOffsets struct {
	SaddleThickness  float64 `koanf:"saddle_thickness"`
	Setback          float64 `koanf:"setback"`
	HipSocketHeight  float64 `koanf:"hip_socket_height"`
	HipSocketSetback float64 `koanf:"hip_socket_setback"`
	ShoeThickness    float64 `koanf:"shoe_thickness"`
}

// DefaultContactOffsetsInches returns typical hip socket and shoe offsets in
// inches for the given saddle thickness and setback.
func DefaultContactOffsetsInches(saddleThickness, setback float64) ContactOffsets {
	return ContactOffsets{
		SaddleThickness:  saddleThickness,
		Setback:          setback,
		HipSocketHeight:  2.5,
		HipSocketSetback: 2,
		ShoeThickness:    1,
	}
}

// WithContactOffsets returns a new vector with the offsets applied.
// The seat rises by the saddle and hip socket height and moves back by the
// setbacks. Shoe thickness lowers both seat and hands relative to the pedal.
func (b BikeVector) WithContactOffsets(o ContactOffsets) BikeVector {
	out := b
	out.SeatY += o.SaddleThickness + o.HipSocketHeight - o.ShoeThickness
	out.HandY -= o.ShoeThickness
	out.SeatX -= o.HipSocketSetback + o.Setback
	return out
}

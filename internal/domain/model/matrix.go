package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Column counts of the row forms.
const (
	BikeColumns         = 5
	BodyColumns         = 6
	ExtendedBodyColumns = 8
	FrameColumns        = 14
	AngleColumns        = 3
)

func matrixRows(m mat.Matrix, want ...int) (int, int, error) {
	r, c := m.Dims()
	for _, w := range want {
		if c == w {
			return r, c, nil
		}
	}
	return 0, 0, fmt.Errorf("matrix has %d columns, want %v: %w", c, want, ErrShapeMismatch)
}

// BikesFromMatrix reads an n×5 matrix into bike vectors.
func BikesFromMatrix(m mat.Matrix) ([]BikeVector, error) {
	rows, cols, err := matrixRows(m, BikeColumns)
	if err != nil {
		return nil, err
	}
	out := make([]BikeVector, rows)
	buf := make([]float64, cols)
	for i := range rows {
		mat.Row(buf, i, m)
		b, err := BikeFromRow(buf)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// BodiesFromMatrix reads an n×6 or n×8 matrix into body vectors.
func BodiesFromMatrix(m mat.Matrix) ([]BodyVector, error) {
	rows, cols, err := matrixRows(m, BodyColumns, ExtendedBodyColumns)
	if err != nil {
		return nil, err
	}
	out := make([]BodyVector, rows)
	buf := make([]float64, cols)
	for i := range rows {
		mat.Row(buf, i, m)
		b, err := BodyFromRow(buf)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// FramesFromMatrix reads an n×14 matrix into frames.
func FramesFromMatrix(m mat.Matrix) ([]FrameGeometry, error) {
	rows, cols, err := matrixRows(m, FrameColumns)
	if err != nil {
		return nil, err
	}
	out := make([]FrameGeometry, rows)
	buf := make([]float64, cols)
	for i := range rows {
		mat.Row(buf, i, m)
		f, err := FrameFromRow(buf)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// BikesToMatrix writes bike vectors as an n×5 matrix. It returns nil for no bikes.
func BikesToMatrix(bikes []BikeVector) *mat.Dense {
	if len(bikes) == 0 {
		return nil
	}
	data := make([]float64, 0, len(bikes)*BikeColumns)
	for _, b := range bikes {
		data = append(data, b.Row()...)
	}
	return mat.NewDense(len(bikes), BikeColumns, data)
}

// AnglesToMatrix writes results as an n×3 matrix in degrees. Undefined angles
// become NaN, which is the only place NaN is used as a marker.
func AnglesToMatrix(results []AngleResult) *mat.Dense {
	if len(results) == 0 {
		return nil
	}
	m := mat.NewDense(len(results), AngleColumns, nil)
	for i, r := range results {
		for j, a := range []Angle{r.KneeExtension, r.BackAngle, r.ArmpitWrist} {
			v, ok := a.Degrees()
			if !ok {
				v = math.NaN()
			}
			m.Set(i, j, v)
		}
	}
	return m
}

// BroadcastBody repeats one body n times, for batches with a single rider.
func BroadcastBody(body BodyVector, n int) []BodyVector {
	out := make([]BodyVector, n)
	for i := range out {
		out[i] = body
	}
	return out
}

package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/ergofit/internal/domain/model"
)

// BikeInput is a labelled bike vector.
type BikeInput struct {
	Label            string `koanf:"label"`
	model.BikeVector `koanf:",squash"`
}

// FrameInput is a labelled frame.
type FrameInput struct {
	Label               string `koanf:"label"`
	model.FrameGeometry `koanf:",squash"`
}

const contactOffsetsKey = "contact_offsets"

// Input is one rider and the bikes or frames to evaluate for them. All
// lengths share one unit; frames are usually given in millimetres.
// ContactOffsets apply to bikes only. A contact_offsets block that leaves
// out the hip socket or shoe keys gets their inch defaults, so inputs in
// millimetres should give every key.
//
//	discipline: road
//	elbow_angle_deg: 150
//	body: {lower_leg: 19, upper_leg: 15.5, torso: 27, arm: 24, foot: 5.5, ankle_deg: 107}
//	bikes:
//	  - {label: current, seat_x: -9, seat_y: 27, hand_x: 16.5, hand_y: 25.5, crank_length: 7}
type Input struct {
	Discipline     string                `koanf:"discipline"`
	ElbowAngleDeg  float64               `koanf:"elbow_angle_deg"`
	Body           model.BodyVector      `koanf:"body"`
	ContactOffsets *model.ContactOffsets `koanf:"contact_offsets"`
	Bikes          []BikeInput           `koanf:"bikes"`
	Frames         []FrameInput          `koanf:"frames"`
}

// LoadInput reads a YAML input file.
func LoadInput(_ context.Context, path string) (*Input, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrLoadConfig, err)
	}
	in := &Input{}
	if err := unmarshal(k, "", in); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if k.Exists(contactOffsetsKey) {
		// Keys left out keep the inch defaults for the hip socket and shoe.
		off := model.DefaultContactOffsetsInches(0, 0)
		if err := unmarshal(k, contactOffsetsKey, &off); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		in.ContactOffsets = &off
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Validate checks that the input names something to evaluate and that every
// vector is finite.
func (in *Input) Validate() error {
	if len(in.Bikes) == 0 && len(in.Frames) == 0 {
		return fmt.Errorf("no bikes or frames: %w", ErrInvalidInput)
	}
	if err := in.Body.Validate(); err != nil {
		return fmt.Errorf("body: %w: %w", ErrInvalidInput, err)
	}
	if in.Body.Torso == 0 && in.Body.UpperLeg == 0 && in.Body.LowerLeg == 0 {
		return fmt.Errorf("body is empty: %w", ErrInvalidInput)
	}
	if in.ElbowAngleDeg < 0 || in.ElbowAngleDeg > 180 {
		return fmt.Errorf("elbow_angle_deg %g: %w", in.ElbowAngleDeg, ErrInvalidInput)
	}
	for i, b := range in.Bikes {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bikes[%d]: %w: %w", i, ErrInvalidInput, err)
		}
	}
	for i, f := range in.Frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frames[%d]: %w: %w", i, ErrInvalidInput, err)
		}
	}
	return nil
}

// Bike returns bike i with the contact offsets applied, if any.
func (in *Input) Bike(i int) model.BikeVector {
	b := in.Bikes[i].BikeVector
	if in.ContactOffsets != nil {
		b = b.WithContactOffsets(*in.ContactOffsets)
	}
	return b
}

// BikeLabel returns the label of bike i, or a positional default.
func (in *Input) BikeLabel(i int) string {
	if l := in.Bikes[i].Label; l != "" {
		return l
	}
	return fmt.Sprintf("bike-%d", i)
}

// FrameLabel returns the label of frame i, or a positional default.
func (in *Input) FrameLabel(i int) string {
	if l := in.Frames[i].Label; l != "" {
		return l
	}
	return fmt.Sprintf("frame-%d", i)
}

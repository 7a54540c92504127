// Package motion defines the dense (frame, joint, channel) array shared by
// the extractor, the remapper and the exporters.
package motion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Channel layout of a joint-position-and-orientation sample.
const (
	PosX = iota
	PosY
	PosZ
	QuatW
	QuatX
	QuatY
	QuatZ

	// PoseChannels is the channel count of an extractor sample.
	PoseChannels = 7
	// PositionChannels is the channel count of a keypoint sample.
	PositionChannels = 3
)

// ErrShape is returned when an array does not have the expected dimensions.
var ErrShape = errors.New("motion: shape mismatch")

// Array is a row-major (frames, joints, channels) block of samples.
type Array struct {
	Frames   int
	Joints   int
	Channels int
	Data     []float64
}

// New allocates a zeroed array.
func New(frames, joints, channels int) *Array {
	return &Array{
		Frames:   frames,
		Joints:   joints,
		Channels: channels,
		Data:     make([]float64, frames*joints*channels),
	}
}

// FromData wraps data with the given shape.
func FromData(data []float64, shape ...int) (*Array, error) {
	if len(shape) != 3 {
		return nil, fmt.Errorf("%w: want rank 3, got %v", ErrShape, shape)
	}
	if shape[0]*shape[1]*shape[2] != len(data) {
		return nil, fmt.Errorf("%w: shape %v does not hold %d values", ErrShape, shape, len(data))
	}
	return &Array{Frames: shape[0], Joints: shape[1], Channels: shape[2], Data: data}, nil
}

// Shape returns the dimensions in (frames, joints, channels) order.
func (a *Array) Shape() []int {
	return []int{a.Frames, a.Joints, a.Channels}
}

func (a *Array) offset(frame, joint, channel int) int {
	return (frame*a.Joints+joint)*a.Channels + channel
}

// At returns a single channel value.
func (a *Array) At(frame, joint, channel int) float64 {
	return a.Data[a.offset(frame, joint, channel)]
}

// Set stores a single channel value.
func (a *Array) Set(frame, joint, channel int, v float64) {
	a.Data[a.offset(frame, joint, channel)] = v
}

// Sample returns the channels of one joint at one frame. The slice aliases
// the array.
func (a *Array) Sample(frame, joint int) []float64 {
	start := a.offset(frame, joint, 0)
	return a.Data[start : start+a.Channels]
}

// Position returns the position channels of a joint.
func (a *Array) Position(frame, joint int) r3.Vec {
	s := a.Sample(frame, joint)
	return r3.Vec{X: s[PosX], Y: s[PosY], Z: s[PosZ]}
}

// SetPosition overwrites the position channels of a joint.
func (a *Array) SetPosition(frame, joint int, p r3.Vec) {
	s := a.Sample(frame, joint)
	s[PosX], s[PosY], s[PosZ] = p.X, p.Y, p.Z
}

// Orientation returns the (w, x, y, z) quaternion channels of a joint.
// Arrays with fewer than PoseChannels channels have no orientation.
func (a *Array) Orientation(frame, joint int) (quat.Number, bool) {
	if a.Channels < PoseChannels {
		return quat.Number{}, false
	}
	s := a.Sample(frame, joint)
	return quat.Number{Real: s[QuatW], Imag: s[QuatX], Jmag: s[QuatY], Kmag: s[QuatZ]}, true
}

// SetOrientation overwrites the quaternion channels of a joint.
func (a *Array) SetOrientation(frame, joint int, q quat.Number) {
	s := a.Sample(frame, joint)
	s[QuatW], s[QuatX], s[QuatY], s[QuatZ] = q.Real, q.Imag, q.Jmag, q.Kmag
}

// Stride returns every step-th frame starting at frame 0. The result holds
// ceil(Frames/step) frames and does not alias the receiver.
func (a *Array) Stride(step int) (*Array, error) {
	if step < 1 {
		return nil, fmt.Errorf("%w: stride %d", ErrShape, step)
	}
	frames := (a.Frames + step - 1) / step
	out := New(frames, a.Joints, a.Channels)
	frameSize := a.Joints * a.Channels
	for i := 0; i < frames; i++ {
		src := i * step * frameSize
		copy(out.Data[i*frameSize:(i+1)*frameSize], a.Data[src:src+frameSize])
	}
	return out, nil
}

// FillNaN sets every channel of a joint to NaN for all frames.
func (a *Array) FillNaN(joint int) {
	nan := math.NaN()
	for t := 0; t < a.Frames; t++ {
		s := a.Sample(t, joint)
		for c := range s {
			s[c] = nan
		}
	}
}

package remap

import (
	"bvhToolkit/src/logger"
	"bvhToolkit/src/skeleton"

	"gonum.org/v1/gonum/spatial/r3"
)

// Defaults used by New.
const (
	DefaultStride = 5
	DefaultDelta  = 0.05
)

// DefaultScale stretches the skeleton by 10% vertically.
var DefaultScale = r3.Vec{X: 1.0, Y: 1.0, Z: 1.1}

// Option applies a configuration option to the Remapper.
type Option func(*Remapper)

// WithStride keeps every stride-th frame.
func WithStride(stride int) Option {
	return func(r *Remapper) {
		r.stride = stride
	}
}

// WithScale sets the per-axis scale applied around the root joint.
func WithScale(scale r3.Vec) Option {
	return func(r *Remapper) {
		r.scale = scale
	}
}

// WithWidening enables the lateral leg widening pass with the given delta.
func WithWidening(delta float64) Option {
	return func(r *Remapper) {
		r.widen = true
		r.delta = delta
	}
}

// WithLateralAxis sets the root-local axis used as the widening direction.
func WithLateralAxis(axis r3.Vec) Option {
	return func(r *Remapper) {
		r.axis = axis
	}
}

// WithMapping replaces the source-to-target name table.
func WithMapping(m skeleton.Mapping) Option {
	return func(r *Remapper) {
		if m != nil {
			r.mapping = m
		}
	}
}

// WithLegJoints sets the mirrored target joints moved by widening.
func WithLegJoints(left, right skeleton.Names) Option {
	return func(r *Remapper) {
		r.left = left
		r.right = right
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Remapper) {
		if l != nil {
			r.log = l
		}
	}
}

package bvh

import "errors"

// Sentinel errors for BVH parsing and evaluation.
var (
	ErrInvalidBVH  = errors.New("bvh: invalid file")
	ErrUnknownBone = errors.New("bvh: unknown bone")
)

// ErrFrameRange reports a frame the Armature cannot pose. Extraction checks
// its range up front and reports extract.ErrFrameRange instead.
var ErrFrameRange = errors.New("bvh: frame out of range")

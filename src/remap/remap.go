// Package remap converts joint-position-and-orientation arrays from one
// skeleton convention to another and applies the cosmetic post-processing
// passes (rescale around the root, lateral leg widening).
package remap

import (
	"context"
	"fmt"
	"math"

	"bvhToolkit/src/logger"
	"bvhToolkit/src/motion"
	"bvhToolkit/src/skeleton"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// rootIndex is the position of the root joint in both name lists.
const rootIndex = 0

// DefaultLateralAxis is the root's local axis that points to the body's right.
var DefaultLateralAxis = r3.Vec{Y: 1}

// Remapper turns BVH joint arrays into SMPL keypoint arrays.
type Remapper struct {
	stride  int
	scale   r3.Vec
	widen   bool
	delta   float64
	axis    r3.Vec
	source  skeleton.Names
	target  skeleton.Names
	mapping skeleton.Mapping
	left    skeleton.Names
	right   skeleton.Names
	log     logger.Logger
}

// Result is the outcome of a Remap call.
type Result struct {
	// Keypoints has shape (ceil(T/stride), len(target), 3).
	Keypoints *motion.Array
	// Unmapped lists the target joints filled with NaN.
	Unmapped []string
}

// New creates a Remapper for the BVH -> SMPL conversion with the default
// stride and scale and widening disabled.
func New(opts ...Option) *Remapper {
	r := &Remapper{
		stride:  DefaultStride,
		scale:   DefaultScale,
		delta:   DefaultDelta,
		axis:    DefaultLateralAxis,
		source:  skeleton.BVHJointNames,
		target:  skeleton.SMPLJointNames,
		mapping: skeleton.BVHToSMPL,
		left:    skeleton.LeftLegJoints,
		right:   skeleton.RightLegJoints,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remapper) validate(in *motion.Array) error {
	if r.stride < 1 {
		return fmt.Errorf("%w: stride %d", ErrInvalidOption, r.stride)
	}
	if math.IsNaN(r.delta) || math.IsInf(r.delta, 0) {
		return fmt.Errorf("%w: delta %v", ErrInvalidOption, r.delta)
	}
	if r3.Norm(r.axis) == 0 {
		return fmt.Errorf("%w: zero lateral axis", ErrInvalidOption)
	}
	if len(r.left) != len(r.right) {
		return fmt.Errorf("%w: %d left joints vs %d right joints", ErrInvalidOption, len(r.left), len(r.right))
	}
	if in.Joints != len(r.source) {
		return fmt.Errorf("%w: %d joints, skeleton has %d", ErrShape, in.Joints, len(r.source))
	}
	if in.Channels < motion.PositionChannels {
		return fmt.Errorf("%w: %d channels, need at least %d", ErrShape, in.Channels, motion.PositionChannels)
	}
	if r.widen && in.Channels < motion.PoseChannels {
		return fmt.Errorf("%w: widening needs orientation channels, got %d", ErrShape, in.Channels)
	}
	return nil
}

// Remap down-samples in, re-indexes its joints onto the target skeleton,
// rescales around the root and optionally widens the legs.
func (r *Remapper) Remap(ctx context.Context, in *motion.Array) (*Result, error) {
	if err := r.validate(in); err != nil {
		return nil, err
	}

	sampled, err := in.Stride(r.stride)
	if err != nil {
		return nil, err
	}

	keypoints, unmapped := r.Keypoints(sampled)
	Rescale(keypoints, rootIndex, r.scale)

	if r.widen {
		if err := r.Widen(keypoints, sampled); err != nil {
			return nil, err
		}
	}

	if r.log != nil {
		r.log.Info(ctx, "remapped keypoints",
			logger.Int("input_frames", in.Frames),
			logger.Int("output_frames", keypoints.Frames),
			logger.Int("joints", keypoints.Joints),
			logger.Int("unmapped", len(unmapped)),
			logger.Any("scale", []float64{r.scale.X, r.scale.Y, r.scale.Z}))
		if len(unmapped) > 0 {
			r.log.Debug(ctx, "unmapped target joints", logger.Any("joints", unmapped))
		}
	}

	return &Result{Keypoints: keypoints, Unmapped: unmapped}, nil
}

// Keypoints copies the position channels of each mapped source joint into
// its target slot. Target joints without a source, or whose source is not
// in the source skeleton, are filled with NaN and reported.
func (r *Remapper) Keypoints(in *motion.Array) (*motion.Array, []string) {
	out := motion.New(in.Frames, len(r.target), motion.PositionChannels)
	inverse := r.mapping.Inverse()

	var unmapped []string
	for i, name := range r.target {
		src := -1
		if sourceName, ok := inverse[name]; ok {
			src = r.source.Index(sourceName)
		}
		if src == -1 {
			out.FillNaN(i)
			unmapped = append(unmapped, name)
			continue
		}
		for t := 0; t < in.Frames; t++ {
			copy(out.Sample(t, i), in.Sample(t, src)[:motion.PositionChannels])
		}
	}
	return out, unmapped
}

// Rescale applies (p - root) * scale + root to every joint of every frame.
// The root itself is left unchanged.
func Rescale(a *motion.Array, root int, scale r3.Vec) {
	for t := 0; t < a.Frames; t++ {
		origin := a.Position(t, root)
		for j := 0; j < a.Joints; j++ {
			d := r3.Sub(a.Position(t, j), origin)
			d = r3.Vec{X: d.X * scale.X, Y: d.Y * scale.Y, Z: d.Z * scale.Z}
			a.SetPosition(t, j, r3.Add(d, origin))
		}
	}
}

// RightVector returns the world direction of the root's local Y axis for an
// orientation quaternion. A zero or NaN quaternion yields NaN.
func RightVector(q quat.Number) r3.Vec {
	return rotateAxis(q, DefaultLateralAxis)
}

func rotateAxis(q quat.Number, axis r3.Vec) r3.Vec {
	if n := quat.Abs(q); n != 0 {
		q = quat.Scale(1/n, q)
	}
	return r3.Unit(r3.Rotation(q).Rotate(axis))
}

// Widen moves the left leg joints by +delta and the right leg joints by
// -delta along the root's lateral axis, frame by frame. source supplies the
// root orientation and must be aligned frame for frame with keypoints.
func (r *Remapper) Widen(keypoints, source *motion.Array) error {
	if source.Frames != keypoints.Frames {
		return fmt.Errorf("%w: %d source frames for %d keypoint frames", ErrShape, source.Frames, keypoints.Frames)
	}
	left, err := r.indices(r.left)
	if err != nil {
		return err
	}
	right, err := r.indices(r.right)
	if err != nil {
		return err
	}

	for t := 0; t < keypoints.Frames; t++ {
		q, ok := source.Orientation(t, rootIndex)
		if !ok {
			return fmt.Errorf("%w: source has no orientation channels", ErrShape)
		}
		shift := r3.Scale(r.delta, rotateAxis(q, r.axis))
		for _, j := range left {
			keypoints.SetPosition(t, j, r3.Add(keypoints.Position(t, j), shift))
		}
		for _, j := range right {
			keypoints.SetPosition(t, j, r3.Sub(keypoints.Position(t, j), shift))
		}
	}
	return nil
}

func (r *Remapper) indices(names skeleton.Names) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		if out[i] = r.target.Index(name); out[i] == -1 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJoint, name)
		}
	}
	return out, nil
}

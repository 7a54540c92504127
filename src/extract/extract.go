// Package extract samples a posed armature frame by frame into a
// joint-position-and-orientation array.
package extract

import (
	"context"
	"errors"
	"fmt"

	"bvhToolkit/src/logger"
	"bvhToolkit/src/motion"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultCorrectionDeg is the rotation about world Z applied to every bone
// orientation to move from the rig's bone-space convention to the target's.
const DefaultCorrectionDeg = -90.0

// ErrFrameRange is returned for an inverted frame range or one reaching
// outside the scene's frames.
var ErrFrameRange = errors.New("extract: invalid frame range")

// Scene is the host the extractor samples from.
type Scene interface {
	// FrameRange returns the first and last frame, inclusive.
	FrameRange() (start, end int)
	// Bones returns the bone names in output order.
	Bones() []string
	// SetFrame poses the scene at frame.
	SetFrame(ctx context.Context, frame int) error
	// Bone returns a bone's translation and channel-space rotation at the
	// current frame.
	Bone(name string) (mgl64.Vec3, mgl64.Mat3, error)
}

// Options controls a run. Zero values fall back to the scene's range and
// DefaultCorrectionDeg.
type Options struct {
	FrameStart    *int
	FrameEnd      *int
	CorrectionDeg *float64
	Logger        logger.Logger
	OnFrame       func(frame int)
}

// Extract returns a (frames, bones, 7) array. Row i holds frame start+i.
// Channels are position (x, y, z) followed by the corrected orientation
// (w, x, y, z).
func Extract(ctx context.Context, scene Scene, opts Options) (*motion.Array, error) {
	first, last := scene.FrameRange()
	start, end := first, last
	if opts.FrameStart != nil {
		start = *opts.FrameStart
	}
	if opts.FrameEnd != nil {
		end = *opts.FrameEnd
	}
	if end < start {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrFrameRange, start, end)
	}
	if start < first || end > last {
		return nil, fmt.Errorf("%w: [%d, %d] outside scene [%d, %d]", ErrFrameRange, start, end, first, last)
	}

	correctionDeg := DefaultCorrectionDeg
	if opts.CorrectionDeg != nil {
		correctionDeg = *opts.CorrectionDeg
	}
	correction := mgl64.QuatRotate(mgl64.DegToRad(correctionDeg), mgl64.Vec3{0, 0, 1})

	bones := scene.Bones()
	out := motion.New(end-start+1, len(bones), motion.PoseChannels)

	if opts.Logger != nil {
		opts.Logger.Debug(ctx, "extracting frames",
			logger.Int("frame_start", start),
			logger.Int("frame_end", end),
			logger.Int("bones", len(bones)),
			logger.Float64("correction_deg", correctionDeg))
	}

	for i, frame := 0, start; frame <= end; i, frame = i+1, frame+1 {
		if err := scene.SetFrame(ctx, frame); err != nil {
			return nil, fmt.Errorf("set frame %d: %w", frame, err)
		}
		for j, name := range bones {
			pos, rot, err := scene.Bone(name)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", frame, err)
			}
			q := correction.Mul(mgl64.Mat4ToQuat(rot.Mat4()))

			s := out.Sample(i, j)
			s[motion.PosX], s[motion.PosY], s[motion.PosZ] = pos[0], pos[1], pos[2]
			s[motion.QuatW], s[motion.QuatX], s[motion.QuatY], s[motion.QuatZ] = q.W, q.V[0], q.V[1], q.V[2]
		}
		if opts.OnFrame != nil {
			opts.OnFrame(frame)
		}
	}
	return out, nil
}

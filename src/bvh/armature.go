package bvh

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Armature evaluates a BvhTree's pose with forward kinematics. It is the
// scene source the extractor samples from.
type Armature struct {
	tree  *BvhTree
	scale float64

	names   []string
	byName  map[string]int
	parents []int
	offsets []mgl64.Vec3

	// channels and channelStart locate each joint's columns in a frame row.
	channels     [][]string
	channelStart []int

	frame       int
	translation []mgl64.Vec3
	rotation    []mgl64.Mat3
}

// ArmatureOption configures an Armature.
type ArmatureOption func(*Armature)

// WithScale multiplies every translation by scale, e.g. 0.01 for
// centimetre rigs.
func WithScale(scale float64) ArmatureOption {
	return func(a *Armature) {
		if scale != 0 {
			a.scale = scale
		}
	}
}

// NewArmature prepares tree for evaluation. No frame is set until SetFrame
// is called.
func NewArmature(tree *BvhTree, opts ...ArmatureOption) *Armature {
	joints := tree.GetJoints(false)
	a := &Armature{
		tree:         tree,
		scale:        1,
		names:        make([]string, len(joints)),
		byName:       make(map[string]int, len(joints)),
		parents:      make([]int, len(joints)),
		offsets:      make([]mgl64.Vec3, len(joints)),
		channels:     make([][]string, len(joints)),
		channelStart: make([]int, len(joints)),
		frame:        -1,
		translation:  make([]mgl64.Vec3, len(joints)),
		rotation:     make([]mgl64.Mat3, len(joints)),
	}
	for _, opt := range opts {
		opt(a)
	}

	for i, joint := range joints {
		a.names[i] = joint.Name()
		a.byName[joint.Name()] = i
		offset := tree.JointOffset(joint.Name())
		a.offsets[i] = mgl64.Vec3{offset[0], offset[1], offset[2]}
		a.channels[i] = tree.JointChannels(joint.Name())
		a.channelStart[i] = tree.GetJointChannelsIndex(joint.Name())
	}
	for i, joint := range joints {
		a.parents[i] = -1
		if parent := tree.JointParent(joint.Name()); parent != nil {
			a.parents[i] = a.byName[parent.Name()]
		}
	}
	return a
}

// FrameRange returns the first and last frame, inclusive.
func (a *Armature) FrameRange() (int, int) {
	return 0, a.tree.NFrames() - 1
}

// Bones returns the bone names in depth-first order.
func (a *Armature) Bones() []string {
	return a.names
}

// SetFrame evaluates the pose of every bone at frame. Parents precede their
// children in depth-first order so one pass suffices.
func (a *Armature) SetFrame(ctx context.Context, frame int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame < 0 || frame >= a.tree.NFrames() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrFrameRange, frame, a.tree.NFrames())
	}

	row := a.tree.Frames[frame]
	for i := range a.names {
		local, rot := a.localTransform(i, row)
		local = local.Add(a.offsets[i])

		if p := a.parents[i]; p >= 0 {
			a.translation[i] = a.translation[p].Add(a.rotation[p].Mul3x1(local.Mul(a.scale)))
			a.rotation[i] = a.rotation[p].Mul3(rot)
		} else {
			a.translation[i] = local.Mul(a.scale)
			a.rotation[i] = rot
		}
	}
	a.frame = frame
	return nil
}

// localTransform reads a joint's position channels and composes its
// rotation channels in declaration order. Angles are in degrees.
func (a *Armature) localTransform(joint int, row []float64) (mgl64.Vec3, mgl64.Mat3) {
	var pos mgl64.Vec3
	rot := mgl64.Ident3()
	start := a.channelStart[joint]
	for i, channel := range a.channels[joint] {
		v := row[start+i]
		switch channel {
		case "Xposition":
			pos[0] = v
		case "Yposition":
			pos[1] = v
		case "Zposition":
			pos[2] = v
		case "Xrotation":
			rot = rot.Mul3(mgl64.Rotate3DX(mgl64.DegToRad(v)))
		case "Yrotation":
			rot = rot.Mul3(mgl64.Rotate3DY(mgl64.DegToRad(v)))
		case "Zrotation":
			rot = rot.Mul3(mgl64.Rotate3DZ(mgl64.DegToRad(v)))
		}
	}
	return pos, rot
}

// Bone returns the armature-space translation and accumulated channel
// rotation of a bone at the current frame.
func (a *Armature) Bone(name string) (mgl64.Vec3, mgl64.Mat3, error) {
	i, ok := a.byName[name]
	if !ok {
		return mgl64.Vec3{}, mgl64.Mat3{}, fmt.Errorf("%w: %s", ErrUnknownBone, name)
	}
	if a.frame < 0 {
		return mgl64.Vec3{}, mgl64.Mat3{}, fmt.Errorf("%w: no frame set", ErrFrameRange)
	}
	return a.translation[i], a.rotation[i], nil
}

// Frame returns the frame last passed to SetFrame, or -1.
func (a *Armature) Frame() int {
	return a.frame
}

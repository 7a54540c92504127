package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bvhToolkit/src/config"
	"bvhToolkit/src/extract"
	"bvhToolkit/src/motion"
	"bvhToolkit/src/npy"
	"bvhToolkit/src/skeleton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const walkBVH = `HIERARCHY
ROOT Hips
{
  OFFSET 0 0 0
  CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
  JOINT LeftUpLeg
  {
    OFFSET 1 0 0
    CHANNELS 3 Zrotation Xrotation Yrotation
    End Site
    {
      OFFSET 0 -1 0
    }
  }
}
MOTION
Frames: 4
Frame Time: 0.04
0 0 0 0 0 0 0 0 0
0 0 1 0 0 0 0 0 0
0 0 2 0 0 0 0 0 0
0 0 3 0 0 0 0 0 0
`

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BVHTOOLKIT_CONFIG", "")
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func writeSourceArray(t *testing.T, path string, frames int) {
	t.Helper()
	a := motion.New(frames, len(skeleton.BVHJointNames), motion.PoseChannels)
	leftUpLeg := skeleton.BVHJointNames.Index("LeftUpLeg")
	for f := 0; f < frames; f++ {
		for j := 0; j < a.Joints; j++ {
			a.Set(f, j, motion.QuatW, 1)
		}
		a.SetPosition(f, leftUpLeg, r3.Vec{X: 1})
	}
	require.NoError(t, npy.Save(path, a, npy.Float32))
}

func TestRunUsage(t *testing.T) {
	out, err := runCommand(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: bvhToolkit <command>")

	_, err = runCommand(t)
	assert.Error(t, err)

	_, err = runCommand(t, "dance")
	assert.ErrorContains(t, err, "unknown command")
}

func TestRunExtract(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "walk.bvh")
	out := filepath.Join(dir, "world_data.npy")
	require.NoError(t, os.WriteFile(in, []byte(walkBVH), 0o600))

	_, err := runCommand(t, "extract", "-in", in, "-out", out, "-frame-start", "1")
	require.NoError(t, err)

	arr, err := npy.Load(out)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, motion.PoseChannels}, arr.Shape())
	assert.InDelta(t, 1, arr.At(0, 0, motion.PosZ), 1e-6)
	assert.InDelta(t, 1, arr.At(0, 1, motion.PosX), 1e-6)

	_, err = runCommand(t, "extract", "-out", out)
	assert.ErrorContains(t, err, "-in is required")
}

func TestRunExtractRejectsInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "walk.bvh")
	out := filepath.Join(dir, "world_data.npy")
	require.NoError(t, os.WriteFile(in, []byte(walkBVH), 0o600))

	for _, args := range [][]string{
		{"-scale", "0"},
		{"-scale", "-1"},
		{"-frame-start", "3", "-frame-end", "1"},
	} {
		_, err := runCommand(t, append([]string{"extract", "-in", in, "-out", out}, args...)...)
		assert.ErrorIs(t, err, config.ErrInvalidConfig, "args %v", args)
	}
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))

	_, err = runCommand(t, "extract", "-in", in, "-out", out, "-frame-end", "9")
	assert.ErrorIs(t, err, extract.ErrFrameRange)

	_, err = runCommand(t, "extract", "-in", in, "-out", out, "-scale", "2")
	require.NoError(t, err)
	arr, err := npy.Load(out)
	require.NoError(t, err)
	assert.InDelta(t, 2, arr.At(0, 1, motion.PosX), 1e-6)
}

func TestRunRemap(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "world_data.npy")
	out := filepath.Join(dir, "smpl_keypoints.npy")
	writeSourceArray(t, in, 11)

	_, err := runCommand(t, "remap", "-in", in, "-out", out)
	require.NoError(t, err)

	kp, err := npy.Load(out)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 45, 3}, kp.Shape())
	assert.Equal(t, r3.Vec{X: 1}, kp.Position(2, skeleton.SMPLJointNames.Index("left_hip")))

	_, err = runCommand(t, "remap", "-in", in, "-out", out, "-widen", "-delta", "0.1")
	require.NoError(t, err)
	kp, err = npy.Load(out)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, kp.Position(0, skeleton.SMPLJointNames.Index("left_hip")).Y, 1e-12)

	_, err = runCommand(t, "remap", "-in", in, "-out", out, "-stride", "0")
	assert.Error(t, err)

	_, err = runCommand(t, "remap", "-in", in, "-out", out, "-scale", "1,1")
	assert.Error(t, err)
}

func TestRunCSVAndPlot(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "world_data.npy")
	kp := filepath.Join(dir, "kp.npy")
	bvhPath := filepath.Join(dir, "walk.bvh")
	writeSourceArray(t, src, 10)
	require.NoError(t, os.WriteFile(bvhPath, []byte(walkBVH), 0o600))

	_, err := runCommand(t, "remap", "-in", src, "-out", kp)
	require.NoError(t, err)

	_, err = runCommand(t, "csv", "-in", kp, "-bvh", bvhPath, "-frame-time", "0.2")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "kp.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,pelvis.x,pelvis.y,pelvis.z,left_hip.x"))

	data, err = os.ReadFile(filepath.Join(dir, "walk_hierarchy.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "LeftUpLeg,Hips,1.000000,0.000000,0.000000")

	png := filepath.Join(dir, "left_hip.png")
	_, err = runCommand(t, "plot", "-in", kp, "-joint", "left_hip", "-out", png)
	require.NoError(t, err)
	_, err = os.Stat(png)
	assert.NoError(t, err)

	chart := filepath.Join(dir, "left_hip.html")
	_, err = runCommand(t, "plot", "-in", kp, "-joint", "left_hip", "-out", chart)
	require.NoError(t, err)
	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "left_hip")

	scatter := filepath.Join(dir, "scatter.png")
	_, err = runCommand(t, "plot", "-csv", filepath.Join(dir, "kp.csv"), "-x", "0", "-y", "4", "-out", scatter)
	require.NoError(t, err)

	_, err = runCommand(t, "plot", "-in", kp, "-joint", "tail", "-out", png)
	assert.Error(t, err)
}

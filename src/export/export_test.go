package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bvhToolkit/src/bvh"
	"bvhToolkit/src/motion"
	"bvhToolkit/src/skeleton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const hierarchyBVH = `HIERARCHY
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
Frames: 1
Frame Time: 0.04
0 0 0 0 0 0 0 0 0
`

func TestEncodeKeypoints(t *testing.T) {
	a := motion.New(2, 2, motion.PositionChannels)
	a.SetPosition(0, 1, r3.Vec{X: 1, Y: 2, Z: 3})
	a.FillNaN(0)

	var buf bytes.Buffer
	require.NoError(t, EncodeKeypoints(&buf, a, skeleton.Names{"pelvis", "left_hip"}, 0.2))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time,pelvis.x,pelvis.y,pelvis.z,left_hip.x,left_hip.y,left_hip.z", lines[0])

	cells := strings.Split(lines[1], ",")
	require.Len(t, cells, 7)
	assert.Equal(t, "   0.00000", cells[0])
	assert.Equal(t, "       NaN", cells[1])
	assert.Equal(t, "   1.00000", cells[4])
	assert.Equal(t, "   3.00000", cells[6])
	assert.True(t, strings.HasPrefix(lines[2], "   0.20000,"))
}

func TestEncodeKeypointsPoseChannels(t *testing.T) {
	a := motion.New(1, 1, motion.PoseChannels)

	var buf bytes.Buffer
	require.NoError(t, EncodeKeypoints(&buf, a, skeleton.Names{"Hips"}, 1))
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "time,Hips.x,Hips.y,Hips.z,Hips.qw,Hips.qx,Hips.qy,Hips.qz", header)
}

func TestEncodeKeypointsErrors(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeKeypoints(&buf, motion.New(1, 2, 3), skeleton.Names{"pelvis"}, 1)
	assert.ErrorIs(t, err, ErrNames)

	err = EncodeKeypoints(&buf, motion.New(1, 1, 8), skeleton.Names{"pelvis"}, 1)
	assert.ErrorIs(t, err, ErrColumn)
}

func TestEncodeHierarchy(t *testing.T) {
	tree, err := bvh.NewBvhTree(hierarchyBVH)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeHierarchy(&buf, tree, 2))

	want := "joint,parent,offset.x,offset.y,offset.z\n" +
		"Hips,,0.000000,0.000000,0.000000\n" +
		"LeftUpLeg,Hips,2.000000,0.000000,0.000000\n" +
		"LeftUpLeg_End,LeftUpLeg,0.000000,-2.000000,0.000000\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	tree, err := bvh.NewBvhTree(hierarchyBVH)
	require.NoError(t, err)

	hierarchyPath := filepath.Join(dir, "hierarchy.csv")
	require.NoError(t, WriteHierarchy(tree, hierarchyPath, 1))
	data, err := os.ReadFile(hierarchyPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LeftUpLeg,Hips,1.000000")

	keypointsPath := filepath.Join(dir, "keypoints.csv")
	require.NoError(t, WriteKeypoints(motion.New(3, 1, 3), skeleton.Names{"pelvis"}, keypointsPath, 0.1))
	data, err = os.ReadFile(keypointsPath)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))

	err = WriteKeypoints(motion.New(1, 1, 3), skeleton.Names{"pelvis"}, filepath.Join(dir, "missing", "k.csv"), 1)
	assert.Error(t, err)
}

func TestTrajectory(t *testing.T) {
	a := motion.New(4, 2, motion.PositionChannels)
	for f := 0; f < 4; f++ {
		a.SetPosition(f, 1, r3.Vec{X: float64(f), Y: 1, Z: math.NaN()})
	}

	p, err := Trajectory(a, 1, "left_hip")
	require.NoError(t, err)
	assert.Equal(t, "left_hip trajectory", p.Title.Text)
	assert.Equal(t, "Frame", p.X.Label.Text)

	_, err = Trajectory(a, 2, "none")
	assert.ErrorIs(t, err, ErrColumn)
}

func TestPlotFiles(t *testing.T) {
	dir := t.TempDir()
	a := motion.New(3, 1, motion.PositionChannels)
	for f := 0; f < 3; f++ {
		a.SetPosition(f, 0, r3.Vec{X: float64(f), Y: float64(f * f)})
	}

	pngPath := filepath.Join(dir, "trajectory.png")
	require.NoError(t, PlotTrajectory(a, 0, "pelvis", pngPath))
	info, err := os.Stat(pngPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	csvPath := filepath.Join(dir, "keypoints.csv")
	require.NoError(t, WriteKeypoints(a, skeleton.Names{"pelvis"}, csvPath, 0.5))
	scatterPath := filepath.Join(dir, "scatter.png")
	require.NoError(t, PlotCsv(csvPath, 1, 2, scatterPath))
	_, err = os.Stat(scatterPath)
	assert.NoError(t, err)

	assert.ErrorIs(t, PlotCsv(csvPath, 0, 9, scatterPath), ErrColumn)
}

func TestChartTrajectory(t *testing.T) {
	a := motion.New(3, 2, motion.PositionChannels)
	a.FillNaN(0)
	for f := 0; f < 3; f++ {
		a.SetPosition(f, 1, r3.Vec{X: float64(f) + 0.5, Y: 2, Z: 3})
	}

	var buf bytes.Buffer
	require.NoError(t, ChartTrajectory(&buf, a, 1, "left_hip"))
	html := buf.String()
	assert.Contains(t, html, "left_hip trajectory")
	assert.Contains(t, html, "2.5")

	buf.Reset()
	require.NoError(t, ChartTrajectory(&buf, a, 0, "pelvis"))
	assert.NotContains(t, buf.String(), "NaN")

	assert.ErrorIs(t, ChartTrajectory(&buf, a, 5, "none"), ErrColumn)

	path := filepath.Join(t.TempDir(), "chart.html")
	require.NoError(t, WriteChart(a, 1, "left_hip", path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

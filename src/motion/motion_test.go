package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestArrayAccessors(t *testing.T) {
	a := New(2, 3, PoseChannels)
	require.Len(t, a.Data, 2*3*7)

	a.SetPosition(1, 2, r3.Vec{X: 1, Y: 2, Z: 3})
	a.SetOrientation(1, 2, quat.Number{Real: 1})

	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, a.Position(1, 2))
	assert.Equal(t, 1.0, a.At(1, 2, QuatW))
	assert.Equal(t, 3.0, a.Data[len(a.Data)-5])

	q, ok := a.Orientation(1, 2)
	require.True(t, ok)
	assert.Equal(t, quat.Number{Real: 1}, q)

	keypoints := New(1, 1, PositionChannels)
	_, ok = keypoints.Orientation(0, 0)
	assert.False(t, ok)
}

func TestFromData(t *testing.T) {
	a, err := FromData(make([]float64, 24), 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, a.Shape())

	_, err = FromData(make([]float64, 23), 2, 3, 4)
	assert.ErrorIs(t, err, ErrShape)

	_, err = FromData(make([]float64, 6), 2, 3)
	assert.ErrorIs(t, err, ErrShape)
}

func TestStride(t *testing.T) {
	tests := []struct {
		frames int
		step   int
		want   []float64
	}{
		{frames: 11, step: 5, want: []float64{0, 5, 10}},
		{frames: 10, step: 5, want: []float64{0, 5}},
		{frames: 1, step: 5, want: []float64{0}},
		{frames: 4, step: 1, want: []float64{0, 1, 2, 3}},
		{frames: 0, step: 5, want: nil},
	}
	for _, tt := range tests {
		a := New(tt.frames, 2, 1)
		for f := 0; f < tt.frames; f++ {
			a.Set(f, 0, 0, float64(f))
			a.Set(f, 1, 0, float64(-f))
		}

		got, err := a.Stride(tt.step)
		require.NoError(t, err)
		require.Equal(t, len(tt.want), got.Frames)
		for i, want := range tt.want {
			assert.Equal(t, want, got.At(i, 0, 0))
			assert.Equal(t, -want, got.At(i, 1, 0))
		}
	}

	_, err := New(3, 1, 1).Stride(0)
	assert.ErrorIs(t, err, ErrShape)
}

func TestStrideDoesNotAlias(t *testing.T) {
	a := New(3, 1, 1)
	got, err := a.Stride(1)
	require.NoError(t, err)
	got.Set(0, 0, 0, 42)
	assert.Equal(t, 0.0, a.At(0, 0, 0))
}

func TestFillNaN(t *testing.T) {
	a := New(3, 2, PositionChannels)
	a.FillNaN(1)
	for f := 0; f < 3; f++ {
		for c := 0; c < PositionChannels; c++ {
			assert.True(t, math.IsNaN(a.At(f, 1, c)))
			assert.Equal(t, 0.0, a.At(f, 0, c))
		}
	}
}

package dims

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerAxisSilo(t *testing.T) {
	scale, ok := PerAxis(New(25, 71, 25), New(7.79, 16.4, 7.79), 1)
	require.True(t, ok)
	assert.InDelta(t, 3.209, scale.X(), 1e-3)
	assert.InDelta(t, 4.329, scale.Y(), 1e-3)
	assert.InDelta(t, 3.209, scale.Z(), 1e-3)
}

func TestPerAxisMultiplier(t *testing.T) {
	scale, ok := PerAxis(New(10, 20, 30), New(1, 2, 3), 1.5)
	require.True(t, ok)
	assert.InDelta(t, 15, scale.X(), 1e-4)
	assert.InDelta(t, 15, scale.Y(), 1e-4)
	assert.InDelta(t, 15, scale.Z(), 1e-4)
}

func TestPerAxisNeverBelowFloor(t *testing.T) {
	values := []float32{0.001, 0.01, 0.5, 1, 7.79, 100, 5000}
	multipliers := []float32{}
	for m := 0.01; m <= 1000; m *= 1.7 {
		multipliers = append(multipliers, float32(m))
	}
	multipliers = append(multipliers, 1000)

	for _, r := range values {
		for _, g := range values {
			for _, m := range multipliers {
				scale, ok := PerAxis(New(r, r, r), New(g, g, g), m)
				require.True(t, ok)
				for i := 0; i < 3; i++ {
					if scale[i] < MinAxisScale {
						t.Fatalf("real=%v glb=%v m=%v axis %d: %v < %v", r, g, m, i, scale[i], MinAxisScale)
					}
				}
			}
		}
	}
}

func TestPerAxisFloorApplies(t *testing.T) {
	scale, ok := PerAxis(New(1, 1, 1), New(1000, 1000, 1000), 0.1)
	require.True(t, ok)
	assert.Equal(t, MinAxisScale, scale.X())
}

func TestConvertFallsBackToUniform(t *testing.T) {
	tests := []struct {
		name     string
		real     *Dimensions
		authored *Dimensions
	}{
		{"missing real", nil, New(1, 1, 1)},
		{"missing authored", New(1, 1, 1), nil},
		{"zero authored axis", New(1, 1, 1), New(1, 0, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Convert(tc.real, tc.authored, 1.5, 0.7)
			assert.True(t, res.Uniform)
			assert.Equal(t, float32(0.7), res.Scale.X())
			assert.Equal(t, float32(0.7), res.Scale.Y())
			assert.Equal(t, float32(0.7), res.Scale.Z())
		})
	}

	res := Convert(New(2, 2, 2), New(1, 1, 1), 1, 0.7)
	assert.False(t, res.Uniform)
	assert.Equal(t, float32(2), res.Scale.Y())
}

func TestUniformHeightScale(t *testing.T) {
	s, err := UniformHeightScale(71, 16.4)
	require.NoError(t, err)
	assert.InDelta(t, 4.329, s, 1e-3)

	s, err = UniformHeightScale(10000, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxImportScale, s)

	s, err = UniformHeightScale(1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MinImportScale, s)

	_, err = UniformHeightScale(10, 0)
	assert.True(t, errors.Is(err, ErrNonPositiveHeight))

	_, err = UniformHeightScale(-1, 2)
	assert.True(t, errors.Is(err, ErrNonPositiveHeight))
}

func TestClampMultiplier(t *testing.T) {
	assert.Equal(t, float32(2.0), ClampMultiplier(5.0))
	assert.Equal(t, float32(0.1), ClampMultiplier(-1.0))
	assert.Equal(t, float32(1.5), ClampMultiplier(1.5))
	assert.Equal(t, float32(0.1), ClampMultiplier(float32(math.NaN())))
}

func TestClampsCompose(t *testing.T) {
	base, err := UniformHeightScale(5000, 1)
	require.NoError(t, err)
	effective := base * ClampMultiplier(10)
	assert.Equal(t, MaxImportScale*MaxMultiplier, effective)
}

func TestDimensionsHelpers(t *testing.T) {
	d := New(1, 2, 3)
	assert.True(t, d.Positive())
	assert.Equal(t, *d, FromVec3(d.Vec3()))
	assert.Equal(t, Dimensions{Width: 2, Height: 4, Length: 6}, d.Scaled(2))

	var missing *Dimensions
	assert.False(t, missing.Positive())
}

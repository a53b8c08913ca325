// Package dims converts between a model's authored dimensions and its
// real-world size.
//
// Two independent clamps exist. The base scale of a model is derived from
// its dimensions (per axis for catalog models, from a single height for
// imported ones). The user-facing multiplier dial is clamped separately to
// [MinMultiplier, MaxMultiplier] and composes with the base scale.
package dims

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	// MinAxisScale keeps per-axis scale away from zero so bounding-box math
	// downstream stays well defined.
	MinAxisScale float32 = 0.01

	MinMultiplier     float32 = 0.1
	MaxMultiplier     float32 = 2.0
	DefaultMultiplier float32 = 1.0

	MinImportScale float32 = 0.1
	MaxImportScale float32 = 500.0
)

var ErrNonPositiveHeight = errors.New("height must be positive")

// Dimensions are width (X), height (Y) and length (Z).
type Dimensions struct {
	Width  float32 `mapstructure:"width" json:"width"`
	Height float32 `mapstructure:"height" json:"height"`
	Length float32 `mapstructure:"length" json:"length"`
}

func New(width, height, length float32) *Dimensions {
	return &Dimensions{Width: width, Height: height, Length: length}
}

// FromVec3 reads X, Y, Z as width, height, length.
func FromVec3(v mgl32.Vec3) Dimensions {
	return Dimensions{Width: v.X(), Height: v.Y(), Length: v.Z()}
}

func (d Dimensions) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{d.Width, d.Height, d.Length}
}

// Positive reports whether every axis is greater than zero.
func (d *Dimensions) Positive() bool {
	return d != nil && d.Width > 0 && d.Height > 0 && d.Length > 0
}

// Scaled returns d multiplied uniformly by s.
func (d Dimensions) Scaled(s float32) Dimensions {
	return Dimensions{Width: d.Width * s, Height: d.Height * s, Length: d.Length * s}
}

// Result is the scale to apply to a node. Uniform is set when the per-axis
// computation was not possible and the fallback scalar was used instead.
type Result struct {
	Scale   mgl32.Vec3
	Uniform bool
}

// PerAxis computes world/authored*multiplier on each axis, floored at
// MinAxisScale. ok is false when either dimension set is missing or the
// authored dimensions have a non-positive axis.
func PerAxis(world, authored *Dimensions, multiplier float32) (scale mgl32.Vec3, ok bool) {
	if world == nil || !authored.Positive() {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{
		axis(world.Width, authored.Width, multiplier),
		axis(world.Height, authored.Height, multiplier),
		axis(world.Length, authored.Length, multiplier),
	}, true
}

func axis(world, authored, multiplier float32) float32 {
	s := world / authored * multiplier
	if !(s >= MinAxisScale) {
		return MinAxisScale
	}
	return s
}

// Convert runs PerAxis and falls back to a uniform scale of fallback.
func Convert(world, authored *Dimensions, multiplier, fallback float32) Result {
	if s, ok := PerAxis(world, authored, multiplier); ok {
		return Result{Scale: s}
	}
	return Result{Scale: mgl32.Vec3{fallback, fallback, fallback}, Uniform: true}
}

// UniformHeightScale derives a single scale from a known real-world height,
// clamped to [MinImportScale, MaxImportScale].
func UniformHeightScale(realHeight, authoredHeight float32) (float32, error) {
	if !(authoredHeight > 0) {
		return 0, errors.Wrapf(ErrNonPositiveHeight, "authored height %v", authoredHeight)
	}
	if !(realHeight > 0) {
		return 0, errors.Wrapf(ErrNonPositiveHeight, "real height %v", realHeight)
	}
	return ValidScale(realHeight/authoredHeight, MinImportScale, MaxImportScale), nil
}

// ValidScale clamps requested to [lo, hi].
func ValidScale(requested, lo, hi float32) float32 {
	if requested != requested { // NaN
		return lo
	}
	if requested < lo {
		return lo
	}
	if requested > hi {
		return hi
	}
	return requested
}

// ClampMultiplier bounds the user-facing scale dial.
func ClampMultiplier(m float32) float32 {
	return ValidScale(m, MinMultiplier, MaxMultiplier)
}

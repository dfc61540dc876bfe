package fractal

import (
	"image/color"
	"math"
)

// RGB is an opaque 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color. Alpha is always 0xffff.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xffff
}

// Black is the colour of points that never escape.
var Black = RGB{}

// Verify at compile time that RGB implements color.Color.
var _ color.Color = RGB{}

// HSL converts hue/saturation/lightness to RGB.
// h is hue in degrees (any value, wrapped into [0, 360)), s and l are in [0, 1].
//
// HSL is a pure function: identical inputs give identical bytes.
func HSL(h, s, l float64) RGB {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return RGB{R: unit8(r + m), G: unit8(g + m), B: unit8(b + m)}
}

// Colorize maps an iteration result to a colour using smooth
// (continuous) escape-time colouring.
//
// Points that did not escape are black. Escaped points get a fractional
// escape count nu, normalized by maxIterations into t in [0, 1], which
// rotates the base hue by up to one full turn. saturation and lightness
// are percentages.
func Colorize(res IterationResult, maxIterations int, exponent, hue, saturation, lightness float64) RGB {
	if !res.Escaped {
		return Black
	}
	t := smoothT(res, maxIterations, exponent)
	h := math.Mod(math.Mod(hue+360*t, 360)+360, 360)
	return HSL(h, saturation/100, lightness/100)
}

// smoothT returns the normalized smooth escape value in [0, 1].
func smoothT(res IterationResult, maxIterations int, exponent float64) float64 {
	logMod := math.Max(math.Log(math.Max(res.FinalModulus, Epsilon)), Epsilon)
	logP := math.Log(math.Max(exponent, Epsilon))
	if math.Abs(logP) < Epsilon {
		logP = Epsilon
	}
	nu := float64(res.Iterations) + 1 - math.Log(logMod)/logP
	if math.IsNaN(nu) {
		return 0
	}
	return clamp01(nu / float64(max(maxIterations, 1)))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// unit8 converts a [0, 1] component to a byte with rounding.
func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

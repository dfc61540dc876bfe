package fractal

import "math"

// Epsilon is the single lower clamp applied to every logarithm and modulus
// argument in the kernel and colour mapper. It keeps the pipeline total:
// no NaN or -Inf ever reaches a pixel.
const Epsilon = 1e-12

// IterationResult is the outcome of iterating one point.
type IterationResult struct {
	// Iterations is the count at which |z| exceeded the bailout,
	// or maxIterations when it never did.
	Iterations int

	// FinalModulus is |z| at the moment iteration stopped.
	FinalModulus float64

	// Escaped reports Iterations < maxIterations.
	Escaped bool
}

// Iterate runs the escape-time recurrence z = z^p + c from z = 0 for the
// point c = (cx, cy).
//
// The power is taken in polar form, z^p = r^p (cos pθ, sin pθ), so
// non-integer exponents work. Exponent 2 takes the cartesian form
// z*z + c, which is the same map without the trigonometric round-off.
//
// Iterate touches no shared state and is safe for concurrent use.
func Iterate(cx, cy, exponent, bailout float64, maxIterations int) IterationResult {
	if exponent == 2 {
		return iterateQuadratic(cx, cy, bailout, maxIterations)
	}

	p := math.Max(exponent, Epsilon)
	var zr, zi, r float64
	for n := 0; n < maxIterations; n++ {
		r = math.Hypot(zr, zi)
		if !(r <= bailout) {
			return escapedAt(n, r)
		}
		if r == 0 {
			zr, zi = cx, cy
			continue
		}
		rp := math.Exp(p * math.Log(math.Max(r, Epsilon)))
		theta := p * math.Atan2(zi, zr)
		sin, cos := math.Sincos(theta)
		zr = rp*cos + cx
		zi = rp*sin + cy
	}
	return IterationResult{Iterations: maxIterations, FinalModulus: math.Hypot(zr, zi)}
}

func iterateQuadratic(cx, cy, bailout float64, maxIterations int) IterationResult {
	var zr, zi float64
	for n := 0; n < maxIterations; n++ {
		r := math.Hypot(zr, zi)
		if !(r <= bailout) {
			return escapedAt(n, r)
		}
		zr, zi = zr*zr-zi*zi+cx, 2*zr*zi+cy
	}
	return IterationResult{Iterations: maxIterations, FinalModulus: math.Hypot(zr, zi)}
}

// escapedAt builds an escaped result, replacing a non-finite modulus
// (overflow, or NaN from Inf*0) by the largest finite float.
func escapedAt(n int, r float64) IterationResult {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		r = math.MaxFloat64
	}
	return IterationResult{Iterations: n, FinalModulus: r, Escaped: true}
}

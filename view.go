package fractal

import "math"

// View describes one frame: which part of the complex plane is visible,
// at what raster size, and how it is iterated and coloured.
//
// A View is a value type. The scheduler copies it when a job starts, so
// later changes by the caller never affect an in-flight render.
type View struct {
	// CenterX and CenterY are the plane coordinates at the raster center.
	CenterX, CenterY float64

	// ViewWidth is the visible span along the real axis. The imaginary
	// span is derived from the pixel aspect ratio (see PlaneHeight).
	ViewWidth float64

	// PixelWidth and PixelHeight are the raster dimensions in device pixels.
	PixelWidth, PixelHeight int

	// MaxIterations bounds the escape-time loop.
	MaxIterations int

	// Exponent is the power p in z^p + c. The classic set uses 2.
	Exponent float64

	// Bailout is the escape radius.
	Bailout float64

	// Hue is the base hue in degrees [0, 360).
	Hue float64

	// Saturation and Lightness are percentages [0, 100].
	Saturation, Lightness float64
}

// Classic framing of the exponent-2 set.
const (
	DefaultCenterX       = -0.5
	DefaultCenterY       = 0.0
	DefaultViewWidth     = 3.5
	DefaultMaxIterations = 200
	DefaultExponent      = 2.0
	DefaultBailout       = 2.0
	DefaultSaturation    = 100.0
	DefaultLightness     = 50.0
)

// DefaultView returns the classic full-set framing for a w x h raster.
func DefaultView(w, h int) View {
	return View{
		CenterX:       DefaultCenterX,
		CenterY:       DefaultCenterY,
		ViewWidth:     DefaultViewWidth,
		PixelWidth:    w,
		PixelHeight:   h,
		MaxIterations: DefaultMaxIterations,
		Exponent:      DefaultExponent,
		Bailout:       DefaultBailout,
		Hue:           0,
		Saturation:    DefaultSaturation,
		Lightness:     DefaultLightness,
	}
}

// Scale returns the plane distance covered by one pixel.
func (v View) Scale() float64 {
	return v.ViewWidth / float64(v.PixelWidth)
}

// PlaneHeight returns the visible span along the imaginary axis.
func (v View) PlaneHeight() float64 {
	return v.ViewWidth * float64(v.PixelHeight) / float64(v.PixelWidth)
}

// Validate reports the first constraint the view violates, as a *ViewError.
// It returns nil for a renderable view.
func (v View) Validate() error {
	switch {
	case v.PixelWidth <= 0:
		return &ViewError{Field: "PixelWidth", Value: v.PixelWidth, Reason: "must be > 0"}
	case v.PixelHeight <= 0:
		return &ViewError{Field: "PixelHeight", Value: v.PixelHeight, Reason: "must be > 0"}
	case !finite(v.ViewWidth) || v.ViewWidth <= 0:
		return &ViewError{Field: "ViewWidth", Value: v.ViewWidth, Reason: "must be finite and > 0"}
	case !finite(v.CenterX):
		return &ViewError{Field: "CenterX", Value: v.CenterX, Reason: "must be finite"}
	case !finite(v.CenterY):
		return &ViewError{Field: "CenterY", Value: v.CenterY, Reason: "must be finite"}
	case v.MaxIterations < 1:
		return &ViewError{Field: "MaxIterations", Value: v.MaxIterations, Reason: "must be >= 1"}
	case !finite(v.Exponent) || v.Exponent <= 0:
		return &ViewError{Field: "Exponent", Value: v.Exponent, Reason: "must be finite and > 0"}
	case !finite(v.Bailout) || v.Bailout < 2:
		return &ViewError{Field: "Bailout", Value: v.Bailout, Reason: "must be finite and >= 2"}
	case !finite(v.Hue) || v.Hue < 0 || v.Hue >= 360:
		return &ViewError{Field: "Hue", Value: v.Hue, Reason: "must be in [0, 360)"}
	case !finite(v.Saturation) || v.Saturation < 0 || v.Saturation > 100:
		return &ViewError{Field: "Saturation", Value: v.Saturation, Reason: "must be in [0, 100]"}
	case !finite(v.Lightness) || v.Lightness < 0 || v.Lightness > 100:
		return &ViewError{Field: "Lightness", Value: v.Lightness, Reason: "must be in [0, 100]"}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

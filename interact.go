package fractal

import "math"

// Zoom step factors applied by Controller.ZoomIn and Controller.ZoomOut.
const (
	ZoomInFactor  = 0.75
	ZoomOutFactor = 2.0
)

// Pan returns v moved so that the image follows a pointer drag of
// (dx, dy) pixels. The plane width is unchanged.
func Pan(dx, dy float64, v View) View {
	scale := v.Scale()
	v.CenterX -= dx * scale
	v.CenterY -= dy * scale
	return v
}

// AnchoredZoom returns v with its plane width multiplied by factor and its
// center moved so that the pixel (ax, ay) still maps to the same complex
// point. factor < 1 zooms in. A non-positive or non-finite factor returns
// v unchanged.
func AnchoredZoom(ax, ay, factor float64, v View) View {
	if !finite(factor) || factor <= 0 {
		return v
	}
	anchorX, anchorY := PixelToComplex(ax, ay, v)

	v.ViewWidth *= factor
	scale := v.Scale()
	v.CenterX = anchorX - (ax-float64(v.PixelWidth)/2)*scale
	v.CenterY = anchorY - (ay-float64(v.PixelHeight)/2)*scale
	return v
}

// Resize returns v for a new raster size, keeping the center and the plane
// distance per pixel, so resizing a window reveals more or less of the
// plane instead of stretching it.
func Resize(w, h int, v View) View {
	if w <= 0 || h <= 0 || v.PixelWidth <= 0 {
		return v
	}
	scale := v.Scale()
	v.PixelWidth = w
	v.PixelHeight = h
	v.ViewWidth = scale * float64(w)
	return v
}

// Controller turns pointer and gesture events into new views and restarts
// the render for each one, which cancels the render of the previous view.
//
// Thread safety: like its Scheduler, a Controller belongs to the host
// goroutine.
type Controller struct {
	s          *Scheduler
	view       View
	onPartial  PartialFunc
	onComplete CompleteFunc
	handle     *CancelHandle
}

// NewController creates a controller rendering through s.
// The callbacks are passed to every render it starts.
func NewController(s *Scheduler, v View, onPartial PartialFunc, onComplete CompleteFunc) *Controller {
	return &Controller{s: s, view: v, onPartial: onPartial, onComplete: onComplete}
}

// View returns the current view.
func (c *Controller) View() View {
	return c.view
}

// Handle returns the cancel handle of the latest render, or nil.
func (c *Controller) Handle() *CancelHandle {
	return c.handle
}

// SetView replaces the view and renders it. An invalid view is rejected
// and the current view kept.
func (c *Controller) SetView(v View) error {
	h, err := c.s.Start(v, c.onPartial, c.onComplete)
	if err != nil {
		return err
	}
	c.view = v
	c.handle = h
	return nil
}

// Refresh re-renders the current view.
func (c *Controller) Refresh() error {
	return c.SetView(c.view)
}

// Pan drags the image by (dx, dy) pixels.
func (c *Controller) Pan(dx, dy float64) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	return c.SetView(Pan(dx, dy, c.view))
}

// Zoom scales the plane width by factor around pixel (ax, ay).
func (c *Controller) Zoom(ax, ay, factor float64) error {
	if factor == 1 || !finite(factor) || factor <= 0 {
		return nil
	}
	return c.SetView(AnchoredZoom(ax, ay, factor, c.view))
}

// ZoomIn zooms in one step around pixel (ax, ay).
func (c *Controller) ZoomIn(ax, ay float64) error {
	return c.Zoom(ax, ay, ZoomInFactor)
}

// ZoomOut zooms out one step around pixel (ax, ay).
func (c *Controller) ZoomOut(ax, ay float64) error {
	return c.Zoom(ax, ay, ZoomOutFactor)
}

// Wheel zooms around (ax, ay) by a scroll delta: each unit of positive
// delta zooms in one step, negative delta zooms out. Fractional deltas
// (trackpads) give proportional factors.
func (c *Controller) Wheel(ax, ay, delta float64) error {
	if delta == 0 {
		return nil
	}
	return c.Zoom(ax, ay, math.Pow(ZoomInFactor, delta))
}

// Resize changes the raster size, keeping center and pixel scale.
func (c *Controller) Resize(w, h int) error {
	if w == c.view.PixelWidth && h == c.view.PixelHeight {
		return nil
	}
	return c.SetView(Resize(w, h, c.view))
}

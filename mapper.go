package fractal

// PixelToComplex maps a raster position to its point in the complex plane.
// Fractional pixel coordinates are allowed; integer coordinates address the
// pixel grid used by the scheduler.
func PixelToComplex(px, py float64, v View) (cx, cy float64) {
	scale := v.Scale()
	cx = v.CenterX + (px-float64(v.PixelWidth)/2)*scale
	cy = v.CenterY + (py-float64(v.PixelHeight)/2)*scale
	return cx, cy
}

// ComplexToPixel is the inverse of PixelToComplex.
func ComplexToPixel(cx, cy float64, v View) (px, py float64) {
	scale := v.Scale()
	px = (cx-v.CenterX)/scale + float64(v.PixelWidth)/2
	py = (cy-v.CenterY)/scale + float64(v.PixelHeight)/2
	return px, py
}

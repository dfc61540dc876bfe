package main

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fractal"
)

const captionPad = 4

// captionText describes v in one line.
func captionText(v fractal.View) string {
	return fmt.Sprintf("c=%.8g%+.8gi  w=%.4g  p=%g  iter=%d", v.CenterX, v.CenterY, v.ViewWidth, v.Exponent, v.MaxIterations)
}

// drawCaption writes text in white over a translucent strip along the
// bottom-left edge of img. Text wider than the image is clipped.
func drawCaption(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	m := face.Metrics()
	b := img.Bounds()

	stripH := m.Height.Ceil() + 2*captionPad
	stripW := font.MeasureString(face, text).Ceil() + 2*captionPad
	strip := image.Rect(b.Min.X, b.Max.Y-stripH, min(b.Min.X+stripW, b.Max.X), b.Max.Y).Intersect(b)
	xdraw.Draw(img, strip, image.NewUniform(color.RGBA{A: 0xa0}), image.Point{}, xdraw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(b.Min.X+captionPad, b.Max.Y-captionPad-m.Descent.Ceil()),
	}
	d.DrawString(text)
}

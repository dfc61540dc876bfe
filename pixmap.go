package fractal

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Pixmap is the output raster of a render: RGBA, 4 bytes per pixel,
// rows stored top to bottom with no padding.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a zeroed (transparent) pixmap.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Stride returns the row length in bytes.
func (p *Pixmap) Stride() int {
	return p.width * 4
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Rows returns the bytes of rows [start, start+n). The slice aliases the
// pixmap; it is clamped to the raster.
func (p *Pixmap) Rows(start, n int) []uint8 {
	start = min(max(start, 0), p.height)
	end := min(max(start+n, start), p.height)
	return p.data[start*p.Stride() : end*p.Stride()]
}

// Row returns the bytes of row y.
func (p *Pixmap) Row(y int) []uint8 {
	return p.Rows(y, 1)
}

// Set writes an opaque colour. Out-of-bounds coordinates are ignored.
func (p *Pixmap) Set(x, y int, c RGB) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = c.R
	p.data[i+1] = c.G
	p.data[i+2] = c.B
	p.data[i+3] = 0xff
}

// RGBAt returns the colour at (x, y), ignoring alpha.
// Out-of-bounds coordinates return Black.
func (p *Pixmap) RGBAt(x, y int) RGB {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Black
	}
	i := (y*p.width + x) * 4
	return RGB{R: p.data[i+0], G: p.data[i+1], B: p.data[i+2]}
}

// Clone returns a deep copy.
func (p *Pixmap) Clone() *Pixmap {
	c := NewPixmap(p.width, p.height)
	copy(c.data, p.data)
	return c
}

// ToImage copies the pixmap into an image.RGBA.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// EncodePNG writes the pixmap as PNG.
func (p *Pixmap) EncodePNG(w io.Writer) error {
	return png.Encode(w, p.ToImage())
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := p.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	i := (y*p.width + x) * 4
	return color.RGBA{R: p.data[i+0], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.RGBAModel
}

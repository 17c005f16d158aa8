package hdrio

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// RGBImage is a linear float RGB image. Implements hdr.Image.
type RGBImage struct {
	Rect image.Rectangle
	Pix  []float64 // 3 values per pixel, row-major
}

var _ hdr.Image = (*RGBImage)(nil)

func NewRGBImage(r image.Rectangle) *RGBImage {
	return &RGBImage{Rect: r, Pix: make([]float64, 3*r.Dx()*r.Dy())}
}

func (m *RGBImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (m *RGBImage) Bounds() image.Rectangle { return m.Rect }
func (m *RGBImage) At(x, y int) color.Color { return m.HDRAt(x, y) }
func (m *RGBImage) Size() int               { return m.Rect.Dx() * m.Rect.Dy() }

func (m *RGBImage) HDRAt(x, y int) hdrcolor.Color {
	r, g, b := m.RGBAt(x, y)
	return hdrcolor.RGB{R: r, G: g, B: b}
}

func (m *RGBImage) offset(x, y int) int {
	return 3 * ((y-m.Rect.Min.Y)*m.Rect.Dx() + (x - m.Rect.Min.X))
}

func (m *RGBImage) RGBAt(x, y int) (r, g, b float64) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return 0, 0, 0
	}
	i := m.offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m *RGBImage) SetRGB(x, y int, r, g, b float64) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	i := m.offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Linearize lifts an 8/16-bit sRGB image into linear light.
func Linearize(src image.Image) *RGBImage {
	b := src.Bounds()
	dst := NewRGBImage(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := SRGBAt(src, x, y).LinearRgb()
			dst.SetRGB(x, y, r, g, bl)
		}
	}
	return dst
}

// SRGBAt returns the pixel at (x, y) as a colorful.Color with channels in [0,1].
func SRGBAt(src image.Image, x, y int) colorful.Color {
	r, g, b, _ := src.At(x, y).RGBA()
	return colorful.Color{R: float64(r) / 0xffff, G: float64(g) / 0xffff, B: float64(b) / 0xffff}
}

package report

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas is the abstract 2D drawing surface charts render onto. It decouples
// chart generation from any rendering backend: the production implementation
// rasterizes to a PNG, tests can substitute a recording surface.
type Canvas interface {
	// Size returns the drawable area in pixels.
	Size() (w, h int)
	// SetStroke sets the color used by LineTo.
	SetStroke(c color.Color)
	// MoveTo repositions the pen without drawing.
	MoveTo(x, y float64)
	// LineTo draws a segment from the pen to (x, y) and moves the pen.
	LineTo(x, y float64)
	// FillRect fills an axis-aligned rectangle.
	FillRect(x, y, w, h float64, c color.Color)
	// Text draws a string with its baseline at (x, y).
	Text(x, y float64, s string, c color.Color)
}

// ImageCanvas rasterizes onto an in-memory RGBA image. Drawing is fully
// deterministic: the same sequence of operations yields a pixel-identical
// PNG, with no font hinting or anti-aliasing involved.
type ImageCanvas struct {
	img    *image.RGBA
	stroke color.Color
	penX   float64
	penY   float64
}

// NewImageCanvas returns a white canvas of the given size.
func NewImageCanvas(w, h int) *ImageCanvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return &ImageCanvas{img: img, stroke: color.Black}
}

func (c *ImageCanvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *ImageCanvas) SetStroke(col color.Color) {
	c.stroke = col
}

func (c *ImageCanvas) MoveTo(x, y float64) {
	c.penX, c.penY = x, y
}

func (c *ImageCanvas) LineTo(x, y float64) {
	c.drawLine(c.penX, c.penY, x, y)
	c.penX, c.penY = x, y
}

func (c *ImageCanvas) FillRect(x, y, w, h float64, col color.Color) {
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	x1, y1 := int(math.Round(x+w)), int(math.Round(y+h))
	draw.Draw(c.img, image.Rect(x0, y0, x1, y1).Intersect(c.img.Bounds()),
		image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *ImageCanvas) Text(x, y float64, s string, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

// EncodePNG serializes the canvas. PNG compression is deterministic for a
// given pixel buffer, so identical drawing sequences produce identical bytes.
func (c *ImageCanvas) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawLine rasterizes a segment with integer DDA stepping.
func (c *ImageCanvas) drawLine(x0, y0, x1, y1 float64) {
	dx, dy := x1-x0, y1-y0
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		c.setPixel(x0, y0)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.setPixel(x0+dx*t, y0+dy*t)
	}
}

func (c *ImageCanvas) setPixel(x, y float64) {
	px, py := int(math.Round(x)), int(math.Round(y))
	if image.Pt(px, py).In(c.img.Bounds()) {
		c.img.Set(px, py, c.stroke)
	}
}

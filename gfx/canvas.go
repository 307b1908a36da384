package gfx

import (
	"image"
	"image/color"
	"image/draw"
	"io"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
)

// dpi at which one point is one pixel
const dpi = 72

var fonts = font.NewCache(liberation.Collection())

// Face returns a sans serif font face of the given size in points.
func Face(size float64) font.Face {
	return fonts.Lookup(font.Font{Typeface: "Liberation", Variant: "Sans"}, vg.Points(size))
}

// Canvas is a raster surface of fixed pixel size.
type Canvas struct {
	*vgimg.Canvas
	Width, Height int
}

// NewCanvas creates a width x height canvas filled with bg. A nil bg is transparent.
func NewCanvas(width, height int, bg color.Color) *Canvas {
	if bg == nil {
		bg = color.Transparent
	}
	return &Canvas{
		Canvas: vgimg.NewWith(
			vgimg.UseWH(vg.Points(float64(width)), vg.Points(float64(height))),
			vgimg.UseDPI(dpi),
			vgimg.UseBackgroundColor(bg),
		),
		Width:  width,
		Height: height,
	}
}

// Clear replaces every pixel with bg, or makes them transparent for nil.
func (c *Canvas) Clear(bg color.Color) {
	if bg == nil {
		bg = color.Transparent
	}
	img := c.Image()
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}

// WritePNG encodes the canvas.
func (c *Canvas) WritePNG(w io.Writer) error {
	_, err := vgimg.PngCanvas{Canvas: c.Canvas}.WriteTo(w)
	return err
}

// Compose draws the layers over each other, first at the bottom, into a new image.
func Compose(layers ...*Canvas) *image.RGBA {
	if len(layers) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	bounds := layers[0].Image().Bounds()
	out := image.NewRGBA(bounds)
	for _, l := range layers {
		draw.Draw(out, bounds, l.Image(), l.Image().Bounds().Min, draw.Over)
	}
	return out
}

// Rect returns the closed path around the given rectangle.
func Rect(x0, y0, x1, y1 vg.Length) vg.Path {
	var p vg.Path
	p.Move(vg.Point{X: x0, Y: y0})
	p.Line(vg.Point{X: x1, Y: y0})
	p.Line(vg.Point{X: x1, Y: y1})
	p.Line(vg.Point{X: x0, Y: y1})
	p.Close()
	return p
}

// Line returns the path of a single segment.
func Line(x0, y0, x1, y1 vg.Length) vg.Path {
	var p vg.Path
	p.Move(vg.Point{X: x0, Y: y0})
	p.Line(vg.Point{X: x1, Y: y1})
	return p
}

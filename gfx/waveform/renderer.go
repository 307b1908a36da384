// Package waveform draws the reference waveform with its annotation markers, paged around
// the followed position, and the playback and OTW cursors on a separate layer.
package waveform

import (
	"image/color"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"

	"github.com/peragwin/autopilot/gfx"
	"github.com/peragwin/autopilot/session"
)

// Placeholder is shown until a reference is uploaded.
const Placeholder = "no reference audio uploaded"

// Renderer draws onto surfaces of a fixed size.
type Renderer struct {
	Width, Height float64
	// WindowSize is the page length in downsampled samples, 0 for no paging.
	WindowSize int
	Palette    gfx.Palette

	face font.Face
}

// NewRenderer creates a Renderer for width x height surfaces.
func NewRenderer(width, height, windowSize int, palette gfx.Palette) *Renderer {
	return &Renderer{
		Width:      float64(width),
		Height:     float64(height),
		WindowSize: windowSize,
		Palette:    palette,
		face:       gfx.Face(14),
	}
}

// Window returns the page shown for v.
func (r *Renderer) Window(v *session.View) Window {
	n := len(v.Samples)
	return Page(Focus(v.OTW, v.Playback, v.PlaybackSet, n), r.WindowSize, n)
}

// DrawWaveform draws the visible page of the waveform and its markers, or the placeholder.
func (r *Renderer) DrawWaveform(c vg.Canvas, v *session.View) {
	if !v.Loaded() {
		r.drawPlaceholder(c)
		return
	}
	win := r.Window(v)
	h := vg.Length(r.Height)
	slot := r.Width / float64(win.Span())

	var p vg.Path
	p.Move(vg.Point{X: 0, Y: h / 2})
	x := 0.0
	for _, s := range win.Slice(v.Samples) {
		p.Line(vg.Point{X: vg.Length(x), Y: vg.Length((s + 1) / 2 * r.Height)})
		x += slot
	}
	p.Line(vg.Point{X: vg.Length(x), Y: h / 2})

	c.Push()
	defer c.Pop()
	c.SetLineWidth(1)
	c.SetColor(r.Palette.Waveform)
	c.Stroke(p)

	c.SetLineWidth(4)
	c.SetColor(r.Palette.Marker)
	for _, m := range v.Annotations {
		mx, ok := win.MarkerX(m, v.SampleRate, v.OriginalLength, r.Width)
		if !ok {
			continue
		}
		c.Stroke(gfx.Line(vg.Length(mx), h/4, vg.Length(mx), 3*h/4))
	}
}

func (r *Renderer) drawPlaceholder(c vg.Canvas) {
	w, h := vg.Length(r.Width), vg.Length(r.Height)
	c.Push()
	defer c.Pop()
	c.SetColor(r.Palette.PlaceholderFill)
	c.Fill(gfx.Rect(0, 0, w, h))

	c.SetColor(r.Palette.PlaceholderText)
	ext := r.face.Extents()
	pt := vg.Point{
		X: (w - r.face.Width(Placeholder)) / 2,
		Y: (h - ext.Ascent + ext.Descent) / 2,
	}
	c.FillString(r.face, pt, Placeholder)
}

// DrawCursors draws the playback and OTW cursors. A cursor is absent while its position
// is unset or zero, and both are absent without a reference.
func (r *Renderer) DrawCursors(c vg.Canvas, v *session.View) {
	if !v.Loaded() {
		return
	}
	c.Push()
	defer c.Pop()
	c.SetLineWidth(2)
	if v.PlaybackSet && v.Playback != 0 {
		r.drawCursor(c, v.Playback, len(v.Samples), r.Palette.Playback)
	}
	if v.OTW != 0 {
		r.drawCursor(c, v.OTW, len(v.Samples), r.Palette.OTW)
	}
}

func (r *Renderer) drawCursor(c vg.Canvas, pos float64, n int, clr color.Color) {
	x := vg.Length(CursorX(pos, n, r.WindowSize, r.Width))
	c.SetColor(clr)
	c.Stroke(gfx.Line(x, 0, x, vg.Length(r.Height)))
}

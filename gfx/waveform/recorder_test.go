package waveform

import (
	"image"
	"image/color"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
)

type op struct {
	color color.Color
	width vg.Length
	path  vg.Path
}

type state struct {
	color color.Color
	width vg.Length
}

// recorder is a vg.Canvas that remembers what was drawn.
type recorder struct {
	state
	stack   []state
	strokes []op
	fills   []op
	texts   []string
}

var _ vg.Canvas = (*recorder)(nil)

func (r *recorder) SetLineWidth(w vg.Length)                     { r.width = w }
func (r *recorder) SetLineDash([]vg.Length, vg.Length)           {}
func (r *recorder) SetColor(c color.Color)                       { r.color = c }
func (r *recorder) Rotate(float64)                               {}
func (r *recorder) Translate(vg.Point)                           {}
func (r *recorder) Scale(float64, float64)                       {}
func (r *recorder) Push()                                        { r.stack = append(r.stack, r.state) }
func (r *recorder) Stroke(p vg.Path)                             { r.strokes = append(r.strokes, op{r.color, r.width, p}) }
func (r *recorder) Fill(p vg.Path)                               { r.fills = append(r.fills, op{r.color, r.width, p}) }
func (r *recorder) FillString(_ font.Face, _ vg.Point, s string) { r.texts = append(r.texts, s) }
func (r *recorder) DrawImage(vg.Rectangle, image.Image)          {}

func (r *recorder) Pop() {
	r.state = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *recorder) strokesIn(c color.Color) []op {
	var out []op
	for _, s := range r.strokes {
		if s.color == c {
			out = append(out, s)
		}
	}
	return out
}

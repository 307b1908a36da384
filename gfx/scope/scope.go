// Package scope is an oscilloscope view of the most recent live frame. The trace is
// autoscaled by a pre-gain stage that follows the RMS level of the input.
package scope

import (
	"io"
	"math"
	"sync"

	"gonum.org/v1/plot/vg"

	"github.com/peragwin/autopilot/audio"
	"github.com/peragwin/autopilot/audio/util"
	"github.com/peragwin/autopilot/gfx"
)

// levelBarWidth is the width of the peak meter on the left edge, in pixels.
const levelBarWidth = 4

// Scope receives live frames and draws the latest one. It implements session.Sink.
type Scope struct {
	Width, Height int
	Palette       gfx.Palette

	mu    sync.Mutex
	frame []float64
	gain  float64
	peak  float64
	pre   *util.PreGain
}

// New creates a Scope drawing width x height pixels.
func New(width, height int, palette gfx.Palette) *Scope {
	return &Scope{
		Width:   width,
		Height:  height,
		Palette: palette,
		gain:    1,
		pre:     util.NewPreGain(util.DefaultPreGainParams),
	}
}

// Update stores a copy of frame and adjusts the gain.
func (s *Scope) Update(frame audio.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = append(s.frame[:0], frame...)
	s.gain = s.pre.Observe(frame)

	peak := 0.0
	for _, v := range frame {
		peak = math.Max(peak, math.Abs(v))
	}
	s.peak = peak
}

// Gain is the current trace gain.
func (s *Scope) Gain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

// Draw paints the background, the peak meter and the trace.
func (s *Scope) Draw(c vg.Canvas) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := vg.Length(s.Width), vg.Length(s.Height)
	c.Push()
	defer c.Pop()

	c.SetColor(s.Palette.ScopeBackground)
	c.Fill(gfx.Rect(0, 0, w, h))

	if s.peak > 0 {
		c.SetColor(gfx.Level(s.peak))
		c.Fill(gfx.Rect(0, 0, levelBarWidth, vg.Length(math.Min(s.peak, 1))*h))
	}

	if len(s.frame) == 0 {
		return
	}
	slot := float64(s.Width) / float64(len(s.frame))
	var p vg.Path
	p.Move(vg.Point{X: 0, Y: h / 2})
	x := 0.0
	for _, v := range s.frame {
		y := math.Max(-1, math.Min(1, v*s.gain))
		p.Line(vg.Point{X: vg.Length(x), Y: vg.Length((y + 1) / 2 * float64(s.Height))})
		x += slot
	}
	p.Line(vg.Point{X: vg.Length(x), Y: h / 2})

	c.SetLineWidth(2)
	c.SetColor(s.Palette.ScopeTrace)
	c.Stroke(p)
}

// WritePNG renders the scope into a PNG.
func (s *Scope) WritePNG(w io.Writer) error {
	c := gfx.NewCanvas(s.Width, s.Height, s.Palette.ScopeBackground)
	s.Draw(c)
	return c.WritePNG(w)
}

package waveform

import (
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/peragwin/autopilot/gfx"
	"github.com/peragwin/autopilot/session"
)

// waveKey identifies everything the waveform layer depends on.
type waveKey struct {
	samples     *float64
	n           int
	annotations *float64
	markers     int
	start       int
}

func keyOf(v *session.View, win Window) waveKey {
	k := waveKey{n: len(v.Samples), markers: len(v.Annotations), start: win.Start}
	if k.n > 0 {
		k.samples = &v.Samples[0]
	}
	if k.markers > 0 {
		k.annotations = &v.Annotations[0]
	}
	return k
}

// Layers keeps the waveform and the cursors on two canvases so the cursors can be redrawn
// on every position update while the waveform is only redrawn when its page, signal or
// markers change.
type Layers struct {
	r *Renderer

	mu       sync.Mutex
	waveform *gfx.Canvas
	cursors  *gfx.Canvas
	key      waveKey
	drawn    bool
	redraws  int
}

// NewLayers allocates both canvases at the renderer's size.
func NewLayers(r *Renderer) *Layers {
	w, h := int(r.Width), int(r.Height)
	return &Layers{
		r:        r,
		waveform: gfx.NewCanvas(w, h, r.Palette.Background),
		cursors:  gfx.NewCanvas(w, h, nil),
	}
}

// Update redraws the cursor layer and, when needed, the waveform layer. It reports
// whether the waveform was redrawn.
func (l *Layers) Update(v *session.View) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := keyOf(v, l.r.Window(v))
	redrawn := false
	if !l.drawn || key != l.key {
		l.waveform.Clear(l.r.Palette.Background)
		l.r.DrawWaveform(l.waveform, v)
		l.key, l.drawn = key, true
		l.redraws++
		redrawn = true
		if glog.V(3) {
			glog.Infof("waveform page at %d of %d redrawn", key.start, key.n)
		}
	}

	l.cursors.Clear(nil)
	l.r.DrawCursors(l.cursors, v)
	return redrawn
}

// WindowSize returns the page length in downsampled samples.
func (l *Layers) WindowSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.WindowSize
}

// SetWindowSize changes the page length and forces a waveform redraw on the next Update.
func (l *Layers) SetWindowSize(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 0 {
		n = 0
	}
	l.r.WindowSize = n
	l.drawn = false
}

// Redraws counts waveform redraws.
func (l *Layers) Redraws() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redraws
}

// Composite returns the cursor layer drawn over the waveform layer.
func (l *Layers) Composite() *image.RGBA {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gfx.Compose(l.waveform, l.cursors)
}

// WritePNG encodes the composite.
func (l *Layers) WritePNG(w io.Writer) error {
	return png.Encode(w, l.Composite())
}

// Package mock provides a scripted [align.Engine] for tests.
package mock

import (
	"sync"

	"github.com/peragwin/autopilot/align"
	"github.com/peragwin/autopilot/audio"
)

var _ align.Engine = (*Engine)(nil)

// Engine returns Positions in order from Align, repeating the last one when they run out.
// All calls are recorded.
type Engine struct {
	mu sync.Mutex

	// Positions is the script for Align.
	Positions []float64
	// AlignErr, when set, is returned by every Align call.
	AlignErr error
	// SetReferenceErr, when set, is returned by SetReference.
	SetReferenceErr error
	// FeatureLength is returned by SetReference.
	FeatureLength int

	ready       bool
	next        int
	frames      []audio.Frame
	resets      int
	reference   *audio.Reference
	annotations audio.Annotations
}

// New returns an Engine that is ready and will report positions in order.
func New(positions ...float64) *Engine {
	return &Engine{Positions: positions, ready: true, FeatureLength: 1}
}

// SetReady overrides readiness.
func (e *Engine) SetReady(ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = ready
}

// Ready implements align.Engine.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Align implements align.Engine.
func (e *Engine) Align(frame audio.Frame) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return 0, align.ErrNotReady
	}
	e.frames = append(e.frames, frame)
	if e.AlignErr != nil {
		return 0, e.AlignErr
	}
	if len(e.Positions) == 0 {
		return 0, nil
	}
	i := e.next
	if i >= len(e.Positions) {
		i = len(e.Positions) - 1
	} else {
		e.next++
	}
	return e.Positions[i], nil
}

// Reset implements align.Engine.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resets++
	e.next = 0
	return nil
}

// SetReference implements align.Engine.
func (e *Engine) SetReference(ref *audio.Reference, annotations audio.Annotations) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SetReferenceErr != nil {
		return 0, e.SetReferenceErr
	}
	if ref == nil {
		return 0, align.ErrNoReference
	}
	e.reference = ref
	e.annotations = annotations
	e.ready = true
	return e.FeatureLength, nil
}

// Frames returns the frames passed to Align.
func (e *Engine) Frames() []audio.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]audio.Frame(nil), e.frames...)
}

// Resets returns the number of Reset calls.
func (e *Engine) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

// Reference returns the last installed reference and annotations.
func (e *Engine) Reference() (*audio.Reference, audio.Annotations) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reference, e.annotations
}

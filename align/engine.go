// Package align defines the contract between the capture pipeline and an alignment engine
// that tracks a live performance against a reference recording.
//
// The pipeline only depends on [Engine]; the in-process Online Time Warping engine lives
// in align/otw and a scripted stand-in for tests lives in align/mock.
package align

import (
	"errors"

	"github.com/peragwin/autopilot/audio"
)

var (
	// ErrNotReady is returned by Align when no reference has been installed. Callers must
	// check Ready before forwarding frames.
	ErrNotReady = errors.New("align: engine not ready")

	// ErrNoReference is returned by SetReference when it is given nothing to align against.
	ErrNoReference = errors.New("align: no reference audio")
)

// Engine aligns live frames against a reference.
//
// Implementations must be safe for concurrent use: Align runs on the capture goroutine
// while Reset and SetReference arrive from control requests.
type Engine interface {
	// Ready reports whether Align can be called.
	Ready() bool

	// Align consumes one live frame and returns the estimated position in the reference
	// as a fraction in [0, 1]. Positions may move backwards between calls.
	Align(frame audio.Frame) (float64, error)

	// Reset clears the alignment state, keeping the reference.
	Reset() error

	// SetReference (re)initialises the engine for ref and returns the number of reference
	// feature frames.
	SetReference(ref *audio.Reference, annotations audio.Annotations) (int, error)
}

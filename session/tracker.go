package session

import (
	"math"
	"sync/atomic"
)

// State is the lifecycle of the alignment run.
type State int32

const (
	// Ready means no run has started since the last reset.
	Ready State = iota
	// Active means live frames are being forwarded to the engine.
	Active
	// Paused means a run was started and is on hold.
	Paused
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Active:
		return "active"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Event drives State transitions.
type Event int

const (
	EventToggle Event = iota
	EventReset
)

// transition is the lifecycle state machine. Reset always lands in Ready; Toggle enters
// Active from Ready or Paused and leaves Active for Paused.
func transition(s State, e Event) State {
	switch e {
	case EventReset:
		return Ready
	case EventToggle:
		if s == Active {
			return Paused
		}
		return Active
	}
	return s
}

// Tracker holds the lifecycle state and the two position signals. Each value is read and
// written atomically on its own; there is no consistency between them.
type Tracker struct {
	state    atomic.Int32
	otw      atomic.Uint64
	playback atomic.Uint64
}

// NewTracker returns a Tracker in Ready with OTW at 0 and playback unset.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.ClearPlayback()
	return t
}

// State returns the lifecycle state.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

func (t *Tracker) setState(s State) {
	t.state.Store(int32(s))
}

// OTW returns the last position reported by the engine.
func (t *Tracker) OTW() float64 {
	return math.Float64frombits(t.otw.Load())
}

// SetOTW stores pos as reported, without clamping.
func (t *Tracker) SetOTW(pos float64) {
	t.otw.Store(math.Float64bits(pos))
}

// Playback returns the preview position and whether it is set.
func (t *Tracker) Playback() (float64, bool) {
	v := math.Float64frombits(t.playback.Load())
	return v, !math.IsNaN(v)
}

// SetPlayback stores the preview position.
func (t *Tracker) SetPlayback(pos float64) {
	t.playback.Store(math.Float64bits(pos))
}

// ClearPlayback marks the preview position unset.
func (t *Tracker) ClearPlayback() {
	t.playback.Store(math.Float64bits(math.NaN()))
}

// Reset zeroes the OTW position and returns to Ready.
func (t *Tracker) Reset() {
	t.SetOTW(0)
	t.setState(transition(t.State(), EventReset))
}

package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/autopilot/align"
	"github.com/peragwin/autopilot/audio"
)

// DefaultCapturePeriod is one frame hop of 3686 samples at 44.1kHz.
const DefaultCapturePeriod = 84 * time.Millisecond

// Sink receives every captured frame, whether or not the engine sees it.
type Sink interface {
	Update(frame audio.Frame)
}

// Observer is notified of scheduler activity. Calls come from the capture goroutine.
type Observer interface {
	ObserveTick(active bool)
	ObserveFrameRate(rate int)
	ObservePosition(otw float64)
	ObserveError(err error)
}

type nopSink struct{}

func (nopSink) Update(audio.Frame) {}

type nopObserver struct{}

func (nopObserver) ObserveTick(bool)        {}
func (nopObserver) ObserveFrameRate(int)    {}
func (nopObserver) ObservePosition(float64) {}
func (nopObserver) ObserveError(error)      {}

// Scheduler pulls one frame from the source every period. Frames always go to the sink;
// while the tracker is Active they are also aligned and the OTW position is updated.
//
// Exactly one Task runs at a time. Switching between passive and active dispatch stops the
// old task, waiting for any tick in flight, before the new one is installed.
type Scheduler struct {
	clock   Clock
	period  time.Duration
	tracker *Tracker
	engine  align.Engine
	sink    Sink
	obs     Observer

	mu   sync.Mutex
	src  audio.Source
	task *Task

	// owned by the running task
	counter   int
	lastReset time.Time

	rate    atomic.Int64
	frames  atomic.Uint64
	lastErr atomic.Pointer[error]
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(clock Clock, period time.Duration, tracker *Tracker, engine align.Engine,
	sink Sink, obs Observer) *Scheduler {
	if sink == nil {
		sink = nopSink{}
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Scheduler{
		clock:   clock,
		period:  period,
		tracker: tracker,
		engine:  engine,
		sink:    sink,
		obs:     obs,
	}
}

// Start captures from src, replacing and closing any previous source. Dispatch starts
// passive; an Active session is paused.
func (s *Scheduler) Start(src audio.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.task.Stop()
	s.task = nil
	if s.src != nil && s.src != src {
		if err := s.src.Close(); err != nil {
			glog.Warningf("closing previous audio source: %v", err)
		}
	}

	s.src = src
	s.counter = 0
	s.lastReset = s.clock.Now()
	// capture always begins passive
	state := s.tracker.State()
	if state == Active {
		state = transition(state, EventToggle)
	}
	s.switchTo(state)
	glog.Infof("capture started: %d samples every %s", src.FrameSize(), s.period)
	return nil
}

// Toggle flips between active and passive dispatch and returns the new state. Entering
// Active requires a ready engine; otherwise align.ErrNotReady is returned and nothing
// changes.
func (s *Scheduler) Toggle() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.tracker.State()
	next := transition(cur, EventToggle)
	if next == Active && !s.engine.Ready() {
		return cur, align.ErrNotReady
	}
	s.switchTo(next)
	glog.Infof("alignment %s -> %s", cur, next)
	return next, nil
}

// Reset pauses an active run, clears the engine and returns the tracker to Ready with the
// OTW position at 0.
func (s *Scheduler) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker.State() == Active {
		s.switchTo(transition(Active, EventToggle))
	}
	err := s.engine.Reset()
	s.tracker.Reset()
	glog.Info("alignment reset")
	if err != nil {
		return fmt.Errorf("reset engine: %w", err)
	}
	return nil
}

// Stop cancels capture and closes the source. Stopping a stopped Scheduler does nothing.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.task.Stop()
	s.task = nil
	if s.src == nil {
		return nil
	}
	src := s.src
	s.src = nil
	if err := src.Close(); err != nil {
		return fmt.Errorf("close audio source: %w", err)
	}
	glog.Info("capture stopped")
	return nil
}

// Running reports whether a source is bound.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src != nil
}

// FrameRate is the number of ticks counted in the last full second.
func (s *Scheduler) FrameRate() int {
	return int(s.rate.Load())
}

// Frames is the total number of ticks since the Scheduler was created.
func (s *Scheduler) Frames() uint64 {
	return s.frames.Load()
}

// LastError is the most recent capture or alignment failure, or nil.
func (s *Scheduler) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// switchTo stops the running task, moves the tracker to state and installs the task for
// it. s.mu must be held.
func (s *Scheduler) switchTo(state State) {
	s.task.Stop()
	s.task = nil
	s.tracker.setState(state)
	if s.src == nil {
		return
	}
	src, active := s.src, state == Active
	s.task = Repeat(s.clock, s.period, func() { s.tick(src, active) })
}

func (s *Scheduler) tick(src audio.Source, active bool) {
	s.frames.Add(1)
	s.countFrame(s.clock.Now())
	s.obs.ObserveTick(active)

	frame, err := src.Frame()
	if err != nil {
		s.fail(fmt.Errorf("capture: %w", err))
		return
	}
	s.sink.Update(frame)
	if !active {
		return
	}

	pos, err := s.engine.Align(frame)
	if err != nil {
		s.fail(fmt.Errorf("align: %w", err))
		return
	}
	s.tracker.SetOTW(pos)
	s.obs.ObservePosition(pos)
	if glog.V(2) {
		glog.Infof("otw position %.4f", pos)
	}
}

// countFrame publishes the tick count once at least a second has passed since the last
// publication. The count restarts at 1.
func (s *Scheduler) countFrame(now time.Time) {
	s.counter++
	if now.Sub(s.lastReset) < time.Second {
		return
	}
	s.rate.Store(int64(s.counter))
	s.obs.ObserveFrameRate(s.counter)
	s.counter = 1
	s.lastReset = now
}

func (s *Scheduler) fail(err error) {
	s.lastErr.Store(&err)
	s.obs.ObserveError(err)
	glog.Errorf("tick failed: %v", err)
}

// Package session owns the live alignment pipeline: the capture scheduler, the lifecycle
// and position tracker, preview playback polling and the currently installed reference.
//
// A Session replaces process-wide state. Every resource it starts is released by Close,
// and independent sessions do not share anything.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/autopilot/align"
	"github.com/peragwin/autopilot/align/otw"
	"github.com/peragwin/autopilot/audio"
	"github.com/peragwin/autopilot/audio/util"
)

var (
	// ErrNoReference is returned by operations that need an uploaded reference.
	ErrNoReference = errors.New("session: no reference audio uploaded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
)

// Params configure a Session.
type Params struct {
	CapturePeriod  time.Duration `yaml:"capturePeriod"`
	PlaybackPeriod time.Duration `yaml:"playbackPeriod"`
	// VisSamples is the length of the downsampled waveform kept for display.
	VisSamples int `yaml:"visSamples"`
	// PreviewBlockSize is the output buffer length used for preview playback.
	PreviewBlockSize int `yaml:"previewBlockSize"`
}

// DefaultParams are used for zero fields.
var DefaultParams = Params{
	CapturePeriod:    DefaultCapturePeriod,
	PlaybackPeriod:   DefaultPlaybackPeriod,
	VisSamples:       2000,
	PreviewBlockSize: 1024,
}

// Preview plays the reference back to the performer.
type Preview interface {
	Playback
	Play(ctx context.Context) error
	Stop()
	Playing() bool
}

// Option configures Open.
type Option func(*Session)

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithEngine sets the alignment engine. The default is an OTW engine with default
// parameters.
func WithEngine(e align.Engine) Option {
	return func(s *Session) { s.engine = e }
}

// WithSink receives every captured frame.
func WithSink(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithObserver receives scheduler activity.
func WithObserver(obs Observer) Option {
	return func(s *Session) { s.obs = obs }
}

// WithParams overrides DefaultParams. Zero fields keep their defaults.
func WithParams(p Params) Option {
	return func(s *Session) { s.params = mergeParams(p) }
}

// WithPreview sets how preview playback is created for a newly uploaded reference.
func WithPreview(newPreview func(ref *audio.Reference) Preview) Option {
	return func(s *Session) { s.newPreview = newPreview }
}

func mergeParams(p Params) Params {
	d := DefaultParams
	if p.CapturePeriod > 0 {
		d.CapturePeriod = p.CapturePeriod
	}
	if p.PlaybackPeriod > 0 {
		d.PlaybackPeriod = p.PlaybackPeriod
	}
	if p.VisSamples > 0 {
		d.VisSamples = p.VisSamples
	}
	if p.PreviewBlockSize > 0 {
		d.PreviewBlockSize = p.PreviewBlockSize
	}
	return d
}

// reference is replaced as a whole on upload.
type reference struct {
	ref     *audio.Reference
	samples []float64
	preview Preview
}

// Session is one live alignment pipeline.
type Session struct {
	params     Params
	clock      Clock
	engine     align.Engine
	sink       Sink
	obs        Observer
	newPreview func(ref *audio.Reference) Preview

	tracker *Tracker
	sched   *Scheduler
	poller  *PlaybackPoller

	// mu serialises uploads, preview control and Close
	mu          sync.Mutex
	closed      bool
	ref         atomic.Pointer[reference]
	annotations atomic.Pointer[audio.Annotations]
}

// Open creates a Session. Capture does not begin until Start.
func Open(opts ...Option) (*Session, error) {
	s := &Session{
		params: DefaultParams,
		clock:  SystemClock,
	}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = otw.New(otw.DefaultParams)
	}
	if s.newPreview == nil {
		blockSize := s.params.PreviewBlockSize
		s.newPreview = func(ref *audio.Reference) Preview {
			return audio.NewPlayer(ref, blockSize)
		}
	}
	if s.params.CapturePeriod <= 0 || s.params.PlaybackPeriod <= 0 {
		return nil, fmt.Errorf("session: invalid periods %s/%s",
			s.params.CapturePeriod, s.params.PlaybackPeriod)
	}

	s.tracker = NewTracker()
	s.sched = NewScheduler(s.clock, s.params.CapturePeriod, s.tracker, s.engine, s.sink, s.obs)
	s.poller = NewPlaybackPoller(s.clock, s.params.PlaybackPeriod, s.tracker)
	return s, nil
}

// Close stops capture and preview. Closing twice does nothing.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.poller.Stop()
	if cur := s.ref.Load(); cur != nil {
		cur.preview.Stop()
	}
	return s.sched.Stop()
}

// Start begins capturing from src.
func (s *Session) Start(src audio.Source) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return s.sched.Start(src)
}

// Toggle starts or pauses alignment.
func (s *Session) Toggle() (State, error) {
	return s.sched.Toggle()
}

// Reset returns alignment to Ready with the OTW position at 0.
func (s *Session) Reset() error {
	return s.sched.Reset()
}

// Tracker exposes the shared state read by renderers.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// UploadReference installs the single WAV file among paths as the new reference and
// returns the engine's feature length. On any failure the previous reference stays.
func (s *Session) UploadReference(paths []string) (int, error) {
	path, err := audio.SelectReference(paths)
	if err != nil {
		return 0, err
	}
	ref, err := audio.LoadReference(path)
	if err != nil {
		return 0, err
	}
	return s.SetReference(ref)
}

// SetReference installs an already decoded reference.
func (s *Session) SetReference(ref *audio.Reference) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if ref == nil {
		return 0, align.ErrNoReference
	}

	n, err := s.engine.SetReference(ref, s.Annotations())
	if err != nil {
		return 0, fmt.Errorf("set reference %s: %w", ref.Name, err)
	}
	next := &reference{
		ref:     ref,
		samples: util.Downsample(ref.Samples, s.params.VisSamples),
		preview: s.newPreview(ref),
	}
	if prev := s.ref.Swap(next); prev != nil {
		prev.preview.Stop()
	}
	s.poller.Start(next.preview)

	glog.Infof("reference %s loaded: %s, %d samples at %dHz, %d feature frames",
		ref.Name, ref.Duration(), ref.Len(), ref.SampleRate, n)
	return n, nil
}

// UploadAnnotations replaces the marker set. It is drawn immediately and handed to the
// engine with the next reference.
func (s *Session) UploadAnnotations(r io.Reader) error {
	ann, err := audio.ParseAnnotations(r)
	if err != nil {
		return err
	}
	s.annotations.Store(&ann)
	glog.Infof("%d annotations loaded", len(ann))
	return nil
}

// Annotations returns the current marker set.
func (s *Session) Annotations() audio.Annotations {
	if p := s.annotations.Load(); p != nil {
		return *p
	}
	return nil
}

// TogglePreview starts preview playback from the beginning, or stops and rewinds it.
// It reports whether the preview is now playing.
func (s *Session) TogglePreview(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	cur := s.ref.Load()
	if cur == nil {
		return false, ErrNoReference
	}
	if cur.preview.Playing() {
		cur.preview.Stop()
		return false, nil
	}
	if err := cur.preview.Play(ctx); err != nil {
		return false, fmt.Errorf("preview %s: %w", cur.ref.Name, err)
	}
	return true, nil
}

// View is a snapshot of everything needed to draw the waveform.
type View struct {
	Name           string
	Samples        []float64
	OriginalLength int
	SampleRate     int
	Annotations    audio.Annotations
	OTW            float64
	Playback       float64
	PlaybackSet    bool
	State          State
}

// Loaded reports whether a reference is installed.
func (v *View) Loaded() bool {
	return len(v.Samples) > 0
}

// View snapshots the current reference and positions. Values are read independently, so
// the two positions may come from different ticks.
func (s *Session) View() View {
	v := View{
		Annotations: s.Annotations(),
		OTW:         s.tracker.OTW(),
		State:       s.tracker.State(),
	}
	v.Playback, v.PlaybackSet = s.tracker.Playback()
	if cur := s.ref.Load(); cur != nil {
		v.Name = cur.ref.Name
		v.Samples = cur.samples
		v.OriginalLength = cur.ref.Len()
		v.SampleRate = cur.ref.SampleRate
	}
	return v
}

// Status summarises the session for display.
type Status struct {
	State      State
	Progress   float64
	FrameRate  int
	Frames     uint64
	Reference  string
	Previewing bool
	Running    bool
	LastError  error
}

// Status returns the current status.
func (s *Session) Status() Status {
	st := Status{
		State:     s.tracker.State(),
		Progress:  100 * s.tracker.OTW(),
		FrameRate: s.sched.FrameRate(),
		Frames:    s.sched.Frames(),
		Running:   s.sched.Running(),
		LastError: s.sched.LastError(),
	}
	if cur := s.ref.Load(); cur != nil {
		st.Reference = cur.ref.Name
		st.Previewing = cur.preview.Playing()
	}
	return st
}

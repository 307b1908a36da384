package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/peragwin/autopilot/audio"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{period: d, c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// last returns the most recently created ticker.
func (c *fakeClock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

type fakeTicker struct {
	period  time.Duration
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// tick blocks until the task goroutine receives the tick.
func (t *fakeTicker) tick(tb testing.TB) {
	tb.Helper()
	select {
	case t.c <- time.Time{}:
	case <-time.After(time.Second):
		tb.Fatal("tick not received")
	}
}

type fakeSource struct {
	mu     sync.Mutex
	err    error
	served int
	closed int
}

func (s *fakeSource) Frame() (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.served++
	return audio.Frame{0.1, -0.1, 0.2, -0.2}, nil
}

func (s *fakeSource) FrameSize() int      { return 4 }
func (s *fakeSource) SampleRate() float64 { return 44100 }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSource) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type recordingSink struct {
	mu     sync.Mutex
	frames []audio.Frame
}

func (s *recordingSink) Update(frame audio.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// recordingObserver signals every position and error.
type recordingObserver struct {
	positions chan float64
	errs      chan error
	rates     []int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		positions: make(chan float64, 16),
		errs:      make(chan error, 16),
	}
}

func (o *recordingObserver) ObserveTick(bool)            {}
func (o *recordingObserver) ObserveFrameRate(rate int)   { o.rates = append(o.rates, rate) }
func (o *recordingObserver) ObservePosition(otw float64) { o.positions <- otw }
func (o *recordingObserver) ObserveError(err error)      { o.errs <- err }

type fakePreview struct {
	mu      sync.Mutex
	playing bool
	stops   int
	playErr error
}

func (p *fakePreview) Play(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.playing = true
	return nil
}

func (p *fakePreview) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.stops++
}

func (p *fakePreview) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePreview) Position() (cur, dur time.Duration, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Second, 4 * time.Second, p.playing
}

func (p *fakePreview) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

var errBoom = errors.New("boom")

func writeWAV(t *testing.T, path string, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

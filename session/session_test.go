package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peragwin/autopilot/align"
	"github.com/peragwin/autopilot/align/mock"
	"github.com/peragwin/autopilot/audio"
)

type harness struct {
	s        *Session
	clock    *fakeClock
	eng      *mock.Engine
	obs      *recordingObserver
	previews []*fakePreview
}

func newHarness(t *testing.T, positions ...float64) *harness {
	t.Helper()
	h := &harness{
		clock: newFakeClock(),
		eng:   mock.New(positions...),
		obs:   newRecordingObserver(),
	}
	s, err := Open(
		WithClock(h.clock),
		WithEngine(h.eng),
		WithObserver(h.obs),
		WithParams(Params{VisSamples: 10}),
		WithPreview(func(*audio.Reference) Preview {
			p := &fakePreview{}
			h.previews = append(h.previews, p)
			return p
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	h.s = s
	return h
}

func wavFile(t *testing.T, name string, n int) string {
	t.Helper()
	data := make([]int, n)
	for i := range data {
		data[i] = (i % 200) * 100
	}
	path := filepath.Join(t.TempDir(), name)
	writeWAV(t, path, data)
	return path
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t, 0.10, 0.15, 0.31)

	n, err := h.s.UploadReference([]string{wavFile(t, "ref.wav", 1000)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, h.s.Start(&fakeSource{}))
	state, err := h.s.Toggle()
	require.NoError(t, err)
	require.Equal(t, Active, state)

	ticker := h.clock.last()
	for _, want := range []float64{0.10, 0.15, 0.31} {
		ticker.tick(t)
		assert.Equal(t, want, <-h.obs.positions)
	}
	assert.Equal(t, 0.31, h.s.Tracker().OTW())
	assert.Equal(t, Active, h.s.Tracker().State())
	assert.InDelta(t, 31.0, h.s.Status().Progress, 1e-9)

	require.NoError(t, h.s.Reset())
	assert.Equal(t, Ready, h.s.Tracker().State())
	assert.Equal(t, 0.0, h.s.Tracker().OTW())
	assert.Equal(t, 1, h.eng.Resets())
}

func TestUploadReferenceInstallsDownsampledSignal(t *testing.T) {
	h := newHarness(t)
	_, err := h.s.UploadReference([]string{"notes.txt", wavFile(t, "Take1.WAV", 1000)})
	require.NoError(t, err)

	v := h.s.View()
	assert.True(t, v.Loaded())
	assert.Equal(t, "Take1.WAV", v.Name)
	assert.Len(t, v.Samples, 10)
	assert.Equal(t, 1000, v.OriginalLength)
	assert.Equal(t, 8000, v.SampleRate)

	ref, _ := h.eng.Reference()
	require.NotNil(t, ref)
	assert.Equal(t, ref.Samples[0], v.Samples[0])
	assert.Equal(t, ref.Samples[999], v.Samples[9])
}

func TestFailedUploadKeepsReference(t *testing.T) {
	h := newHarness(t)
	_, err := h.s.UploadReference([]string{wavFile(t, "first.wav", 100)})
	require.NoError(t, err)

	_, err = h.s.UploadReference([]string{"a.txt"})
	assert.ErrorIs(t, err, audio.ErrNoReference)
	assert.ErrorIs(t, err, audio.ErrUpload)

	_, err = h.s.UploadReference([]string{wavFile(t, "a.wav", 100), wavFile(t, "b.wav", 100)})
	assert.ErrorIs(t, err, audio.ErrMultipleReferences)

	bad := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a wav"), 0o644))
	_, err = h.s.UploadReference([]string{bad})
	assert.ErrorIs(t, err, audio.ErrDecode)

	h.eng.SetReferenceErr = errBoom
	_, err = h.s.UploadReference([]string{wavFile(t, "second.wav", 100)})
	assert.ErrorIs(t, err, errBoom)

	v := h.s.View()
	assert.Equal(t, "first.wav", v.Name)
	assert.Len(t, h.previews, 1)
}

func TestUploadReplacesPreview(t *testing.T) {
	h := newHarness(t)
	_, err := h.s.UploadReference([]string{wavFile(t, "first.wav", 100)})
	require.NoError(t, err)
	_, err = h.s.UploadReference([]string{wavFile(t, "second.wav", 100)})
	require.NoError(t, err)

	require.Len(t, h.previews, 2)
	assert.Equal(t, 1, h.previews[0].Stops())
	assert.Equal(t, "second.wav", h.s.View().Name)
}

func TestUploadAnnotations(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.UploadAnnotations(strings.NewReader("1.5\n\n3.25\n")))
	assert.Equal(t, audio.Annotations{1.5, 3.25}, h.s.View().Annotations)

	assert.Error(t, h.s.UploadAnnotations(strings.NewReader("1.5\nchorus\n")))
	assert.Equal(t, audio.Annotations{1.5, 3.25}, h.s.Annotations())

	_, err := h.s.UploadReference([]string{wavFile(t, "ref.wav", 100)})
	require.NoError(t, err)
	_, ann := h.eng.Reference()
	assert.Equal(t, audio.Annotations{1.5, 3.25}, ann)
}

func TestTogglePreview(t *testing.T) {
	h := newHarness(t)
	_, err := h.s.TogglePreview(context.Background())
	assert.ErrorIs(t, err, ErrNoReference)

	_, err = h.s.UploadReference([]string{wavFile(t, "ref.wav", 100)})
	require.NoError(t, err)

	playing, err := h.s.TogglePreview(context.Background())
	require.NoError(t, err)
	assert.True(t, playing)
	assert.True(t, h.s.Status().Previewing)

	playing, err = h.s.TogglePreview(context.Background())
	require.NoError(t, err)
	assert.False(t, playing)

	h.previews[0].playErr = errBoom
	_, err = h.s.TogglePreview(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestPlaybackPolling(t *testing.T) {
	h := newHarness(t)
	_, err := h.s.UploadReference([]string{wavFile(t, "ref.wav", 100)})
	require.NoError(t, err)
	poll := h.clock.last()
	assert.Equal(t, DefaultPlaybackPeriod, poll.period)

	poll.tick(t)
	poll.tick(t)
	v := h.s.View()
	assert.False(t, v.PlaybackSet)

	_, err = h.s.TogglePreview(context.Background())
	require.NoError(t, err)
	poll.tick(t)
	poll.tick(t)
	v = h.s.View()
	assert.True(t, v.PlaybackSet)
	assert.Equal(t, 0.25, v.Playback)
}

func TestPlaybackPollerUnsetWithoutDuration(t *testing.T) {
	tr := NewTracker()
	p := NewPlaybackPoller(newFakeClock(), time.Millisecond, tr)
	tr.SetPlayback(0.5)
	p.poll(playbackFunc(func() (time.Duration, time.Duration, bool) { return time.Second, 0, true }))
	_, ok := tr.Playback()
	assert.False(t, ok)

	p.poll(playbackFunc(func() (time.Duration, time.Duration, bool) { return time.Second, 2 * time.Second, true }))
	pos, ok := tr.Playback()
	assert.True(t, ok)
	assert.Equal(t, 0.5, pos)

	p.Stop()
	_, ok = tr.Playback()
	assert.False(t, ok)
}

type playbackFunc func() (time.Duration, time.Duration, bool)

func (f playbackFunc) Position() (cur, dur time.Duration, playing bool) { return f() }

func TestToggleWithoutReference(t *testing.T) {
	h := newHarness(t)
	h.eng.SetReady(false)
	_, err := h.s.Toggle()
	assert.ErrorIs(t, err, align.ErrNotReady)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	src := &fakeSource{}
	require.NoError(t, h.s.Start(src))
	require.NoError(t, h.s.Close())
	require.NoError(t, h.s.Close())
	assert.Equal(t, 1, src.Closed())

	assert.ErrorIs(t, h.s.Start(src), ErrClosed)
	_, err := h.s.UploadReference([]string{wavFile(t, "ref.wav", 100)})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := newHarness(t, 0.5)
	b := newHarness(t)
	a.s.Tracker().SetOTW(0.5)
	assert.Equal(t, 0.0, b.s.Tracker().OTW())
}

func TestOpenRejectsBadParams(t *testing.T) {
	s, err := Open(WithParams(Params{}))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	bad := DefaultParams
	_, err = Open(func(s *Session) { s.params = Params{CapturePeriod: -1, PlaybackPeriod: bad.PlaybackPeriod} })
	assert.Error(t, err)
}

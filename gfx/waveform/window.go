package waveform

import "math"

// Focus picks the index of the downsampled signal the view follows: the OTW position when
// it is nonzero, else a set nonzero playback position, else the start.
func Focus(otw, playback float64, playbackSet bool, n int) int {
	pos := 0.0
	switch {
	case otw != 0:
		pos = otw
	case playbackSet && playback != 0:
		pos = playback
	}
	i := int(math.Floor(pos * float64(n)))
	if i < 0 {
		return 0
	}
	return i
}

// Window is the visible range [Start, Start+Size) of the downsampled signal. Size 0
// shows the whole signal.
type Window struct {
	Start int
	Size  int
	// N is the length of the downsampled signal.
	N int
}

// Page returns the fixed page of size samples containing focus. A focus at or past the end
// shows the last page.
func Page(focus, size, n int) Window {
	if size <= 0 {
		return Window{Start: 0, Size: 0, N: n}
	}
	if n > 0 && focus >= n {
		focus = n - 1
	}
	return Window{Start: focus / size * size, Size: size, N: n}
}

// Windowed reports whether the view is paged.
func (w Window) Windowed() bool {
	return w.Size > 0
}

// End is one past the last index the window covers; it may exceed N on the last page.
func (w Window) End() int {
	if !w.Windowed() {
		return w.N
	}
	return w.Start + w.Size
}

// Span is the number of sample slots across the surface width.
func (w Window) Span() int {
	if !w.Windowed() {
		return w.N
	}
	return w.Size
}

// Slice returns the visible samples.
func (w Window) Slice(samples []float64) []float64 {
	end := w.End()
	if end > len(samples) {
		end = len(samples)
	}
	if w.Start >= end {
		return nil
	}
	return samples[w.Start:end]
}

// MarkerX returns the x position of a marker given in seconds of the original signal, or
// false when the marker lies outside the window. Markers are never clipped to the edge.
func (w Window) MarkerX(seconds float64, rate, originalLen int, width float64) (float64, bool) {
	if w.N == 0 || originalLen == 0 {
		return 0, false
	}
	at := seconds * float64(rate)
	if !w.Windowed() {
		if at < 0 || at >= float64(originalLen) {
			return 0, false
		}
		return at / float64(originalLen) * width, true
	}
	ratio := float64(originalLen) / float64(w.N)
	if at < float64(w.Start)*ratio || at >= float64(w.End())*ratio {
		return 0, false
	}
	return (at/ratio - float64(w.Start)) / float64(w.Size) * width, true
}

// CursorX maps a position in [0, 1] to an x coordinate. On a paged view the cursor wraps
// within the page the same way the waveform is paged.
func CursorX(pos float64, n, size int, width float64) float64 {
	if size <= 0 {
		return math.Floor(pos * width)
	}
	return math.Floor(math.Mod(pos*float64(n), float64(size)) / float64(size) * width)
}

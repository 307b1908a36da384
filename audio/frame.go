package audio

// Frame is one capture tick of time-domain samples in [-1, 1]. A Frame is never modified
// after it is produced; sinks that need to keep or alter it must copy it.
type Frame []float64

// Source yields fixed-size frames of the most recent live audio.
type Source interface {
	// Frame returns the latest FrameSize samples.
	Frame() (Frame, error)
	// FrameSize is fixed for the lifetime of the source.
	FrameSize() int
	SampleRate() float64
	// Close releases the capture device. It is safe to call more than once.
	Close() error
}

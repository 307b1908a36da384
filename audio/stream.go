package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"

	"github.com/peragwin/autopilot/audio/util"
)

// Config represents a config that is used to open a new Stream.
type Config struct {
	// BlockSize refers to the buffer size for each block read from the device
	BlockSize int `yaml:"blockSize"`
	// Channels is the number of input channeles
	Channels int `yaml:"channels"`
	// SampleRate is the sample rate (Fs).
	SampleRate float64 `yaml:"sampleRate"`
	// FFTSize is the analysis size; frames carry FFTSize/2 samples, one per frequency bin.
	FFTSize int `yaml:"fftSize"`
}

// FrequencyBinCount is the number of samples in each frame produced for this config.
func (c *Config) FrequencyBinCount() int {
	return c.FFTSize / 2
}

// ErrClosed is returned by Frame once the source has been closed.
var ErrClosed = errors.New("audio: source closed")

// NewSource initializes a new streaming source with portaudio and returns a channel on which
// to receive frames. The channel is closed when ctx is done or the stream fails.
func NewSource(ctx context.Context, cfg *Config) (<-chan []float32, <-chan error) {
	out := make(chan []float32)
	errc := make(chan error, 1)
	done := ctx.Done()

	go func() {
		defer close(out)

		if err := portaudio.Initialize(); err != nil {
			errc <- fmt.Errorf("error initializing portaudio: %w", err)
			return
		}
		defer portaudio.Terminate()

		in := make([]float32, cfg.BlockSize*cfg.Channels)

		stream, err := portaudio.OpenDefaultStream(
			cfg.Channels, 0, cfg.SampleRate, cfg.BlockSize, in)
		if err != nil {
			errc <- fmt.Errorf("error opening stream: %w", err)
			return
		}
		defer stream.Close()
		if err := stream.Start(); err != nil {
			errc <- fmt.Errorf("error starting stream: %w", err)
			return
		}
		defer stream.Stop()

		for {
			select {
			case <-done:
				return
			default:
			}

			if err := stream.Read(); err != nil {
				errc <- fmt.Errorf("error reading from stream: %w", err)
				return
			}

			block := make([]float32, len(in))
			copy(block, in)
			select {
			case out <- downmix(block, cfg.Channels):
			case <-done:
				return
			}
		}
	}()

	return out, errc
}

func downmix(block []float32, channels int) []float32 {
	if channels <= 1 {
		return block
	}
	mono := make([]float32, len(block)/channels)
	for i := range mono {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += block[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Analyser keeps the most recent FFTSize samples of a live stream and serves the latest
// FrequencyBinCount of them as a Frame on demand, independent of the device block size.
type Analyser struct {
	cfg    Config
	ring   *util.RingBuffer
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool
	done   <-chan struct{}
}

// NewAnalyser opens the default input device and starts accumulating samples.
func NewAnalyser(ctx context.Context, cfg *Config) (*Analyser, error) {
	if cfg.FFTSize <= 0 || cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("audio: invalid analyser config %+v", *cfg)
	}
	ctx, cancel := context.WithCancel(ctx)
	blocks, errc := NewSource(ctx, cfg)
	return newAnalyser(cfg, blocks, errc, cancel), nil
}

func newAnalyser(cfg *Config, blocks <-chan []float32, errc <-chan error,
	cancel context.CancelFunc) *Analyser {
	a := &Analyser{
		cfg:    *cfg,
		ring:   util.NewRingBuffer(cfg.FFTSize),
		cancel: cancel,
	}
	a.done = Buffer(blocks, a.ring)

	go func() {
		select {
		case err := <-errc:
			a.fail(err)
		case <-a.done:
			// the source may have failed and closed its output at the same time
			select {
			case err := <-errc:
				a.fail(err)
			default:
			}
		}
	}()

	glog.Infof("analyser started: %.0fHz, block %d, frame %d",
		cfg.SampleRate, cfg.BlockSize, cfg.FrequencyBinCount())
	return a
}

func (a *Analyser) fail(err error) {
	if err == nil {
		return
	}
	glog.Errorf("audio source failed: %v", err)
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// Frame returns the latest FrequencyBinCount samples.
func (a *Analyser) Frame() (Frame, error) {
	a.mu.Lock()
	closed, err := a.closed, a.err
	a.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if err != nil {
		return nil, err
	}
	return Frame(a.ring.Get(a.cfg.FrequencyBinCount())), nil
}

// FrameSize implements Source.
func (a *Analyser) FrameSize() int {
	return a.cfg.FrequencyBinCount()
}

// SampleRate implements Source.
func (a *Analyser) SampleRate() float64 {
	return a.cfg.SampleRate
}

// Close stops the capture stream and waits for the accumulator to exit.
func (a *Analyser) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	<-a.done
	glog.Infof("analyser closed")
	return nil
}

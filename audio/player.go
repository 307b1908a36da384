package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

// Player previews a Reference on the default output device and reports how far playback
// has progressed.
type Player struct {
	ref       *Reference
	blockSize int

	// written counts samples handed to the device
	written atomic.Int64
	playing atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPlayer prepares ref for playback in blocks of blockSize samples.
func NewPlayer(ref *Reference, blockSize int) *Player {
	if blockSize <= 0 {
		blockSize = 1024
	}
	return &Player{ref: ref, blockSize: blockSize}
}

// Play starts playback from the beginning. Playing an already playing Player restarts it.
func (p *Player) Play(ctx context.Context) error {
	return p.start(ctx, p.portaudioOutput)
}

func (p *Player) start(ctx context.Context, output func(ctx context.Context, blocks <-chan []float32) error) error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.written.Store(0)
	p.playing.Store(true)

	blocks := make(chan []float32)
	go func(done chan struct{}) {
		defer close(done)
		defer p.playing.Store(false)
		defer cancel()
		go p.feed(ctx, blocks)
		if err := output(ctx, blocks); err != nil {
			glog.Errorf("preview playback of %s failed: %v", p.ref.Name, err)
		}
	}(p.done)

	glog.V(1).Infof("previewing %s (%s)", p.ref.Name, p.ref.Duration())
	return nil
}

// feed slices the reference into blocks; the channel is closed at the end of the audio.
func (p *Player) feed(ctx context.Context, blocks chan<- []float32) {
	defer close(blocks)
	for off := 0; off < len(p.ref.Samples); off += p.blockSize {
		end := off + p.blockSize
		if end > len(p.ref.Samples) {
			end = len(p.ref.Samples)
		}
		block := make([]float32, p.blockSize)
		for i, v := range p.ref.Samples[off:end] {
			block[i] = float32(v)
		}
		select {
		case blocks <- block:
			p.written.Store(int64(end))
		case <-ctx.Done():
			return
		}
	}
}

func (p *Player) portaudioOutput(ctx context.Context, blocks <-chan []float32) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("error initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]float32, p.blockSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.ref.SampleRate), p.blockSize, out)
	if err != nil {
		return fmt.Errorf("error opening output stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("error starting output stream: %w", err)
	}
	defer stream.Stop()

	for block := range blocks {
		copy(out, block)
		if err := stream.Write(); err != nil {
			return fmt.Errorf("error writing to output stream: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// Stop halts playback and rewinds. Stopping a stopped Player does nothing.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.written.Store(0)
}

// Playing reports whether audio is currently being played.
func (p *Player) Playing() bool {
	return p.playing.Load()
}

// Position reports the playback clock, the total duration and whether playback is running.
func (p *Player) Position() (cur, dur time.Duration, playing bool) {
	rate := p.ref.SampleRate
	if rate == 0 {
		return 0, 0, false
	}
	cur = time.Duration(p.written.Load()) * time.Second / time.Duration(rate)
	return cur, p.ref.Duration(), p.playing.Load()
}

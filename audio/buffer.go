package audio

import (
	"github.com/peragwin/autopilot/audio/util"
)

// Buffer converts every incoming float32 block from a raw audio source to float64 and pushes
// it onto ring, so readers can take the most recent window of any size at any time.
// The returned channel is closed once in is closed.
func Buffer(in <-chan []float32, ring *util.RingBuffer) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for x := range in {
			ring.PushFloat32(x)
		}
	}()

	return done
}

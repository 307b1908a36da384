package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreGainRaisesQuietSignal(t *testing.T) {
	p := NewPreGain(DefaultPreGainParams)
	frame := make([]float64, 512)
	for i := range frame {
		frame[i] = 0.01 * math.Sin(float64(i)/5)
	}
	orig := append([]float64(nil), frame...)
	for i := 0; i < 50; i++ {
		p.Observe(frame)
	}
	assert.Greater(t, p.Gain(), 1.0)
	assert.Equal(t, orig, frame, "frame must not be modified")
}

func TestPreGainEmptyFrame(t *testing.T) {
	p := NewPreGain(DefaultPreGainParams)
	assert.Equal(t, 1.0, p.Observe(nil))
}

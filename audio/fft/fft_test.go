package fft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerSpectrumPeak(t *testing.T) {
	const (
		size = 1024
		fs   = 8192.0
	)
	p := NewFFTProcessor(fs, size)
	// 512Hz lands exactly on bin 64
	frame := make([]float64, size)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * 512 * float64(i) / fs)
	}
	orig := append([]float64(nil), frame...)

	px := p.PowerSpectrum(frame)
	require.Len(t, px, p.Bins())
	peak := 0
	for k := range px {
		if px[k] > px[peak] {
			peak = k
		}
	}
	assert.Equal(t, 64, peak)
	assert.Equal(t, orig, frame)
}

func TestPowerSpectrumPadsShortFrames(t *testing.T) {
	p := NewFFTProcessor(8000, 64)
	px := p.PowerSpectrum([]float64{1, 1, 1})
	assert.Len(t, px, 32)
	assert.Greater(t, px[0], 0.0)
}

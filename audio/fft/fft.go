package fft

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Processor computes windowed spectra of fixed-size frames.
type Processor struct {
	SampleRate float64
	Size       int

	window []float64
}

// NewFFTProcessor prepares a Hamming-windowed transform of the given size.
func NewFFTProcessor(sampleRate float64, size int) *Processor {
	return &Processor{
		SampleRate: sampleRate,
		Size:       size,
		window:     window.Hamming(size),
	}
}

// Bins is the number of non-negative frequency bins returned by PowerSpectrum.
func (f *Processor) Bins() int {
	return f.Size / 2
}

// PowerSpectrum returns |X[k]|^2 / N for k in [0, Size/2). Frames shorter than Size are
// zero padded and longer frames use their most recent Size samples. The frame itself is
// not modified.
func (f *Processor) PowerSpectrum(frame []float64) []float64 {
	fx := make([]float64, f.Size)
	if len(frame) > f.Size {
		frame = frame[len(frame)-f.Size:]
	}
	for i, v := range frame {
		fx[i] = v * f.window[i]
	}

	Fx := fft.FFTReal(fx)
	Px := make([]float64, f.Bins())
	N := float64(f.Size)
	for i := range Px {
		Px[i] = real(cmplx.Conj(Fx[i])*Fx[i]) / N
	}
	return Px
}

package otw

import (
	"gonum.org/v1/gonum/floats"

	"github.com/peragwin/autopilot/audio/fft"
	"github.com/peragwin/autopilot/audio/util"
)

// chroma frequency range in Hz
const (
	chromaMinHz = 55
	chromaMaxHz = 5000
)

// ChromaMaker turns time-domain frames into unit-length 12 bin pitch class profiles.
type ChromaMaker struct {
	proc     *fft.Processor
	bucketer *util.Bucketer
}

// NewChromaMaker analyses frames of nfft samples at the given rate.
func NewChromaMaker(sampleRate float64, nfft int) *ChromaMaker {
	proc := fft.NewFFTProcessor(sampleRate, nfft)
	return &ChromaMaker{
		proc:     proc,
		bucketer: util.NewChromaBucketer(proc.Bins(), sampleRate, chromaMinHz, chromaMaxHz),
	}
}

// Chroma returns the normalised pitch class energy of frame. Silence yields a zero vector.
func (c *ChromaMaker) Chroma(frame []float64) []float64 {
	chroma := c.bucketer.Bucket(c.proc.PowerSpectrum(frame))
	if n := floats.Norm(chroma, 2); n > 0 {
		floats.Scale(1/n, chroma)
	}
	return chroma
}

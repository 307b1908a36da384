package util

import (
	"math"

	"github.com/golang/glog"
)

// PreGain tracks the RMS energy of a signal and derives a gain that brings it towards unit
// level. Frames are never modified; callers multiply by Gain() when drawing.
type PreGain struct {
	filterParams [4]float64 // a, b, kp, kd
	rms          float64
	gain         float64
	err          float64
}

// DefaultPreGainParams work well for 84ms microphone frames.
var DefaultPreGainParams = [4]float64{0.1, 0.9, 0.02, 0.05}

// NewPreGain returns a new PreGain stage.
func NewPreGain(filterParams [4]float64) *PreGain {
	return &PreGain{
		filterParams: filterParams,
		gain:         1.0,
		rms:          1.0,
	}
}

// Gain is the current gain.
func (p *PreGain) Gain() float64 {
	return p.gain
}

// Observe updates the gain from the next frame and returns it.
func (p *PreGain) Observe(frame []float64) float64 {
	if len(frame) == 0 {
		return p.gain
	}
	sum := 0.0
	for _, v := range frame {
		v *= p.gain
		sum += v * v
	}

	rms := math.Sqrt(2.0 * sum / float64(len(frame)))
	p.rms = p.filterParams[0]*rms + p.filterParams[1]*p.rms
	rms = p.rms

	e := logCurve(0.0000001 + rms)
	u := p.filterParams[2]*e + p.filterParams[3]*(e-p.err)
	p.gain += u
	if p.gain > 1e3 {
		p.gain = 1e3
	} else if p.gain < 1e-3 {
		p.gain = 1e-3
	}
	p.err = e

	if glog.V(3) {
		glog.Infof("rms = %.02f\tpregain = %.02f", rms, p.gain)
	}
	return p.gain
}

func logCurve(x float64) float64 {
	sign := 1.0
	if x > 0 {
		sign = -1.0
	}
	return sign * (math.Log2(math.Abs(x)))
}

package util

import (
	"math"
)

// Scale maps frequencies (Hz) onto a perceptual axis and back.
type Scale interface {
	To(float64) float64
	From(float64) float64
}

type pitchScale struct{}

// PitchScale maps frequency to fractional MIDI note number (A4 = 440Hz = 69).
var PitchScale *pitchScale

func (s *pitchScale) To(val float64) float64 {
	return 69 + 12*math.Log2(val/440)
}

func (s *pitchScale) From(val float64) float64 {
	return 440 * math.Exp2((val-69)/12)
}

// Bucketer sums the bins of a spectrum frame into a fixed number of buckets. Each bin
// between fMin and fMax is assigned to one bucket; bins outside the range are ignored.
type Bucketer struct {
	Buckets int
	Size    int
	Scale   Scale

	// bucket index per spectrum bin, -1 when the bin is ignored
	index []int
}

// NewChromaBucketer folds every bin between fMin and fMax onto one of the 12 pitch classes
// (0 = C). frameSize is the number of spectrum bins covering 0..sampleRate/2.
func NewChromaBucketer(frameSize int, sampleRate, fMin, fMax float64) *Bucketer {
	return newBucketer(PitchScale, 12, frameSize, sampleRate, fMin, fMax, func(s float64) int {
		pc := int(math.Round(s)) % 12
		if pc < 0 {
			pc += 12
		}
		return pc
	})
}

func newBucketer(scale Scale, buckets, frameSize int, sampleRate, fMin, fMax float64,
	assign func(float64) int) *Bucketer {
	index := make([]int, frameSize)
	binHz := sampleRate / 2 / float64(frameSize)
	for k := range index {
		f := float64(k) * binHz
		if f < fMin || f > fMax || f <= 0 {
			index[k] = -1
			continue
		}
		index[k] = assign(scale.To(f))
	}
	return &Bucketer{
		Buckets: buckets,
		Size:    frameSize,
		Scale:   scale,
		index:   index,
	}
}

// Bucket sums frame into b.Buckets values. Frames shorter than b.Size only fill the
// buckets of the bins they contain.
func (b *Bucketer) Bucket(frame []float64) []float64 {
	buckets := make([]float64, b.Buckets)
	n := len(frame)
	if n > b.Size {
		n = b.Size
	}
	for k := 0; k < n; k++ {
		if i := b.index[k]; i >= 0 {
			buckets[i] += frame[k]
		}
	}
	return buckets
}

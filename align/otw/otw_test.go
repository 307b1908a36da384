package otw

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func randomFeatures(r *rand.Rand, n int) *mat.Dense {
	m := mat.NewDense(n, 12, nil)
	for i := 0; i < n; i++ {
		row := make([]float64, 12)
		for k := range row {
			row[k] = r.Float64()
		}
		floats.Scale(1/floats.Norm(row, 2), row)
		m.SetRow(i, row)
	}
	return m
}

func TestWarperTracksIdenticalSequence(t *testing.T) {
	ref := randomFeatures(rand.New(rand.NewSource(1)), 200)
	w := NewWarper(ref, 300, 3, 0.4)
	require.Equal(t, 200, w.Len())

	for i := 0; i < 200; i++ {
		assert.Equal(t, i, w.Insert(ref.RawRowView(i)), "frame %d", i)
	}
}

func TestWarperRunCountLimitsJumps(t *testing.T) {
	ref := randomFeatures(rand.New(rand.NewSource(2)), 100)
	w := NewWarper(ref, 300, 3, 0.4)

	// live frame matches far ahead; the position may only advance three frames
	assert.Equal(t, 0, w.Insert(ref.RawRowView(0)))
	assert.LessOrEqual(t, w.Insert(ref.RawRowView(50)), 3)
}

func TestWarperBandLimitsSearch(t *testing.T) {
	ref := randomFeatures(rand.New(rand.NewSource(3)), 100)
	w := NewWarper(ref, 2, 10, 0.4)

	w.Insert(ref.RawRowView(0))
	pos := w.Insert(ref.RawRowView(9))
	assert.LessOrEqual(t, pos, 2)
}

func TestWarperReset(t *testing.T) {
	ref := randomFeatures(rand.New(rand.NewSource(4)), 50)
	w := NewWarper(ref, 300, 3, 0.4)
	for i := 0; i < 20; i++ {
		w.Insert(ref.RawRowView(i))
	}
	require.Equal(t, 19, w.Position())

	w.Reset()
	assert.Equal(t, 0, w.Position())
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, w.Insert(ref.RawRowView(i)))
	}
}

func TestChromaPitchClass(t *testing.T) {
	const (
		fs   = 8000.0
		nfft = 1024
	)
	cm := NewChromaMaker(fs, nfft)
	frame := make([]float64, nfft)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * 440 * float64(i) / fs)
	}
	chroma := cm.Chroma(frame)
	require.Len(t, chroma, 12)
	assert.Equal(t, 9, floats.MaxIdx(chroma))
	assert.InDelta(t, 1.0, floats.Norm(chroma, 2), 1e-9)

	silent := cm.Chroma(make([]float64, nfft))
	assert.Equal(t, make([]float64, 12), silent)
}

package util

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWithSpikes(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.1 * math.Sin(2*math.Pi*float64(i)/97)
	}
	x[n/3] = 1
	x[2*n/3] = -1
	return x
}

func TestDownsampleLength(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, n := range []int{5, 17, 300, 4410, 44100} {
		in := make([]float64, n)
		for i := range in {
			in[i] = 2*r.Float64() - 1
		}
		for _, target := range []int{3, 4, 10, 299, 2000} {
			if target >= n {
				continue
			}
			out := Downsample(in, target)
			require.Len(t, out, target, "n=%d target=%d", n, target)
			assert.Equal(t, in[0], out[0])
			assert.Equal(t, in[n-1], out[target-1])
		}
	}
}

func TestDownsampleIdentity(t *testing.T) {
	in := []float64{0.1, -0.2, 0.3, -0.4}
	assert.Equal(t, in, Downsample(in, 0))
	assert.Equal(t, in, Downsample(in, -1))
	assert.Equal(t, in, Downsample(in, 4))
	assert.Equal(t, in, Downsample(in, 100))
	assert.Empty(t, Downsample(nil, 10))
}

func TestDownsampleSelectsInputValues(t *testing.T) {
	in := sineWithSpikes(10000)
	seen := make(map[float64]bool, len(in))
	for _, v := range in {
		seen[v] = true
	}
	for i, v := range Downsample(in, 500) {
		assert.True(t, seen[v], "output %d (%f) is not an input sample", i, v)
	}
}

func TestDownsampleKeepsPeaks(t *testing.T) {
	in := sineWithSpikes(10000)
	out := Downsample(in, 200)
	assert.Contains(t, out, 1.0)
	assert.Contains(t, out, -1.0)
}

func TestDownsampleDeterministic(t *testing.T) {
	in := sineWithSpikes(8191)
	a := Downsample(in, 2000)
	b := Downsample(in, 2000)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, math.Float64bits(a[i]), math.Float64bits(b[i]))
	}
}

func TestDownsampleBuckets(t *testing.T) {
	// 8 points into 5: every = 6/3 = 2, buckets [1,3) [3,5) [5,7)
	in := []float64{0, 0.1, 0.9, -0.1, -0.8, 0.2, 0.3, 0}
	out := Downsample(in, 5)
	assert.Equal(t, []float64{0, 0.9, -0.8, 0.2, 0}, out)
}

func TestDownsampleTinyTargets(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{1}, Downsample(in, 1))
	assert.Equal(t, []float64{1, 4}, Downsample(in, 2))
}

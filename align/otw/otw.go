package otw

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Warper performs online time warping of a growing live feature sequence against a fixed
// reference feature matrix (one feature vector per row).
//
// Each inserted live frame adds one row of accumulated cost, computed only within Band
// reference frames of the current position. The new position is the cheapest
// length-normalised cell within MaxRunCount frames of the previous one.
type Warper struct {
	ref *mat.Dense
	n   int

	band        int
	maxRunCount int
	diagWeight  float64

	t    int
	pos  int
	prev []float64
	cur  []float64
}

// NewWarper creates a Warper over ref.
func NewWarper(ref *mat.Dense, band, maxRunCount int, diagWeight float64) *Warper {
	n, _ := ref.Dims()
	w := &Warper{
		ref:         ref,
		n:           n,
		band:        band,
		maxRunCount: maxRunCount,
		diagWeight:  diagWeight,
		prev:        make([]float64, n),
		cur:         make([]float64, n),
	}
	w.Reset()
	return w
}

// Len is the number of reference frames.
func (w *Warper) Len() int {
	return w.n
}

// Position is the current reference frame index.
func (w *Warper) Position() int {
	return w.pos
}

// Reset restarts the alignment at the beginning of the reference.
func (w *Warper) Reset() {
	w.t = 0
	w.pos = 0
	fill(w.prev, math.Inf(1))
	fill(w.cur, math.Inf(1))
}

// cost is the cosine distance between unit-length chroma vectors.
func (w *Warper) cost(x []float64, j int) float64 {
	d := 1 - floats.Dot(x, w.ref.RawRowView(j))
	if d < 0 {
		return 0
	}
	return d
}

// Insert adds the next live feature vector and returns the new reference position.
func (w *Warper) Insert(x []float64) int {
	lo := w.pos - w.band
	if lo < 0 {
		lo = 0
	}
	hi := w.pos + w.band + 1
	if hi > w.n {
		hi = w.n
	}

	fill(w.cur, math.Inf(1))
	diag := 2 - w.diagWeight
	for j := lo; j < hi; j++ {
		d := w.cost(x, j)
		if w.t == 0 {
			if j == 0 {
				w.cur[j] = d
			} else {
				w.cur[j] = w.cur[j-1] + d
			}
			continue
		}
		best := w.prev[j] + d
		if j > 0 {
			best = math.Min(best, w.cur[j-1]+d)
			best = math.Min(best, w.prev[j-1]+diag*d)
		}
		w.cur[j] = best
	}

	from := w.pos - w.maxRunCount
	if from < lo {
		from = lo
	}
	to := w.pos + w.maxRunCount
	if to > hi-1 {
		to = hi - 1
	}
	next, bestCost := w.pos, math.Inf(1)
	for j := from; j <= to; j++ {
		c := w.cur[j] / float64(w.t+j+2)
		if c < bestCost {
			next, bestCost = j, c
		}
	}

	w.prev, w.cur = w.cur, w.prev
	w.t++
	w.pos = next
	return next
}

func fill(x []float64, v float64) {
	for i := range x {
		x[i] = v
	}
}

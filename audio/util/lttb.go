package util

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Downsample reduces samples to target points using the largest-triangle-three-buckets
// algorithm. The first and last samples are always kept; every other output value is one
// of the input samples, picked from its bucket as the point forming the largest triangle
// with the previously picked point and the centroid of the following bucket.
//
// If target is not positive or not smaller than len(samples) the input is returned unchanged.
// Only values are returned; the original x position of an output point can be recovered
// from the ratio len(samples) / target.
func Downsample(samples []float64, target int) []float64 {
	n := len(samples)
	if target <= 0 || target >= n {
		return samples
	}
	if target < 3 {
		// no room for inner buckets
		out := []float64{samples[0], samples[n-1]}
		return out[:target]
	}

	out := make([]float64, 0, target)
	out = append(out, samples[0])

	every := float64(n-2) / float64(target-2)
	a := 0

	for i := 0; i < target-2; i++ {
		// centroid of the next bucket
		cStart := bucketEdge(i+1, every)
		cEnd := bucketEdge(i+2, every)
		if cEnd > n {
			cEnd = n
		}
		cLen := float64(cEnd - cStart)
		cx := float64(cStart+cEnd-1) / 2
		cy := floats.Sum(samples[cStart:cEnd]) / cLen

		ax, ay := float64(a), samples[a]

		maxArea := -1.0
		next := a
		for b := bucketEdge(i, every); b < bucketEdge(i+1, every); b++ {
			area := math.Abs((ax-cx)*(samples[b]-ay)-(ax-float64(b))*(cy-ay)) * 0.5
			if area > maxArea {
				maxArea = area
				next = b
			}
		}

		out = append(out, samples[next])
		a = next
	}

	return append(out, samples[n-1])
}

// bucketEdge is the first input index of bucket i; index 0 is reserved for the first point.
func bucketEdge(i int, every float64) int {
	return int(math.Floor(float64(i)*every)) + 1
}

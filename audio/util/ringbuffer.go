package util

import (
	"sync"
)

// RingBuffer is a fixed-size circular buffer of samples. It is safe for one writer and any
// number of readers.
type RingBuffer struct {
	sync.RWMutex
	buf   []float64
	index int
	// filled counts pushed samples up to len(buf)
	filled int
}

// NewRingBuffer creates a new ring buffer with the given size.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{buf: make([]float64, size)}
}

// Size is the capacity of the buffer.
func (r *RingBuffer) Size() int {
	return len(r.buf)
}

// Filled reports how many valid samples the buffer currently holds.
func (r *RingBuffer) Filled() int {
	r.RLock()
	defer r.RUnlock()
	return r.filled
}

// Push data onto the ring buffer. Data longer than the buffer keeps only its tail.
func (r *RingBuffer) Push(data []float64) {
	if len(data) > len(r.buf) {
		data = data[len(data)-len(r.buf):]
	}

	r.Lock()
	defer r.Unlock()

	n := copy(r.buf[r.index:], data)
	if n < len(data) {
		copy(r.buf, data[n:])
	}

	r.index = (r.index + len(data)) % len(r.buf)
	r.filled += len(data)
	if r.filled > len(r.buf) {
		r.filled = len(r.buf)
	}
}

// PushFloat32 converts raw device samples and pushes them.
func (r *RingBuffer) PushFloat32(data []float32) {
	y := make([]float64, len(data))
	for i := range data {
		y[i] = float64(data[i])
	}
	r.Push(y)
}

// Get the most recent N data points from the buffer. Slots that were never written read as
// silence.
func (r *RingBuffer) Get(size int) []float64 {
	return r.GetOffset(size, 0)
}

// GetOffset gets the most recent N data points from the buffer, offset minus M samples.
func (r *RingBuffer) GetOffset(size, offset int) []float64 {
	if size > len(r.buf) {
		panic("cant get size greater than size of buffer")
	}

	r.RLock()
	defer r.RUnlock()

	ret := make([]float64, size)
	st := ((r.index-offset-size)%len(r.buf) + len(r.buf)) % len(r.buf)
	n := copy(ret, r.buf[st:])
	if n < size {
		copy(ret[n:], r.buf)
	}

	return ret
}

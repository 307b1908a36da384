package control

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	m.ObserveTick(true)
	m.ObserveTick(true)
	m.ObserveTick(false)
	m.ObserveError(errors.New("boom"))
	m.ObserveFrameRate(11)
	m.ObservePosition(0.31)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("passive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.frameRate))
	assert.Equal(t, 0.31, testutil.ToFloat64(m.position))
}

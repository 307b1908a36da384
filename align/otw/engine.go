// Package otw is an in-process alignment engine based on online time warping of chroma
// features.
package otw

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/mat"

	"github.com/peragwin/autopilot/align"
	"github.com/peragwin/autopilot/audio"
)

var _ align.Engine = (*Engine)(nil)

// Params tune the engine.
type Params struct {
	// SampleRate of the live frames.
	SampleRate float64 `yaml:"sampleRate"`
	// NFFT is the analysis window length for both live and reference audio.
	NFFT int `yaml:"nfft"`
	// RefHop is the distance in samples between reference feature frames.
	RefHop int `yaml:"refHop"`
	// Band is the search radius around the current position, in reference frames.
	Band int `yaml:"band"`
	// MaxRunCount limits how far the position may move per live frame.
	MaxRunCount int `yaml:"maxRunCount"`
	// DiagWeight discounts diagonal steps; 0 treats them like two single steps.
	DiagWeight float64 `yaml:"diagWeight"`
	// StartThreshold gates tracking until the first samples of a frame carry signal.
	StartThreshold float64 `yaml:"startThreshold"`
}

// DefaultParams matches live frames of 8192 samples captured at 44.1kHz.
var DefaultParams = Params{
	SampleRate:     44100,
	NFFT:           8192,
	RefHop:         4096,
	Band:           300,
	MaxRunCount:    3,
	DiagWeight:     0.4,
	StartThreshold: 0.005,
}

// startWindow is the number of leading samples checked against StartThreshold.
const startWindow = 10

// Engine implements align.Engine. It is not ready until a reference has been set.
type Engine struct {
	params Params
	live   *ChromaMaker

	mu      sync.Mutex
	warper  *Warper
	started bool
}

// New creates an engine with the given parameters.
func New(params Params) *Engine {
	return &Engine{
		params: params,
		live:   NewChromaMaker(params.SampleRate, params.NFFT),
	}
}

// Ready implements align.Engine.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warper != nil
}

// Align implements align.Engine.
func (e *Engine) Align(frame audio.Frame) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.warper == nil {
		return 0, align.ErrNotReady
	}
	if !e.started {
		if !e.signalPresent(frame) {
			return 0, nil
		}
		e.started = true
		glog.V(1).Info("otw: signal detected, tracking started")
	}

	pos := e.warper.Insert(e.live.Chroma(frame))
	return clip(float64(pos)/float64(e.warper.Len()), 0, 1), nil
}

func (e *Engine) signalPresent(frame audio.Frame) bool {
	n := startWindow
	if n > len(frame) {
		n = len(frame)
	}
	var sum float64
	for _, v := range frame[:n] {
		sum += v
	}
	return math.Abs(sum) > e.params.StartThreshold
}

// Reset implements align.Engine.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false
	if e.warper != nil {
		e.warper.Reset()
	}
	return nil
}

// SetReference implements align.Engine. Features are computed before the previous reference
// is replaced, so a failure leaves the engine unchanged. Annotations are only logged; they
// do not affect the warping path.
func (e *Engine) SetReference(ref *audio.Reference, annotations audio.Annotations) (int, error) {
	if ref == nil || ref.Len() == 0 {
		return 0, align.ErrNoReference
	}
	features, err := e.referenceFeatures(ref)
	if err != nil {
		return 0, err
	}
	n, _ := features.Dims()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.warper = NewWarper(features, e.params.Band, e.params.MaxRunCount, e.params.DiagWeight)
	e.started = false
	glog.Infof("otw: reference %q installed, %d feature frames, %d annotations",
		ref.Name, n, len(annotations))
	return n, nil
}

func (e *Engine) referenceFeatures(ref *audio.Reference) (*mat.Dense, error) {
	if e.params.NFFT <= 0 || e.params.RefHop <= 0 {
		return nil, fmt.Errorf("otw: invalid analysis parameters nfft=%d hop=%d",
			e.params.NFFT, e.params.RefHop)
	}
	cm := NewChromaMaker(float64(ref.SampleRate), e.params.NFFT)

	n := 1
	if ref.Len() > e.params.NFFT {
		n += (ref.Len() - e.params.NFFT) / e.params.RefHop
	}
	features := mat.NewDense(n, 12, nil)
	for i := 0; i < n; i++ {
		start := i * e.params.RefHop
		end := start + e.params.NFFT
		if end > ref.Len() {
			end = ref.Len()
		}
		features.SetRow(i, cm.Chroma(ref.Samples[start:end]))
	}
	return features, nil
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

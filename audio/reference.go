package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/wav"
)

// Reference is a fully decoded reference recording. It is read-only once created; a new
// upload replaces it wholesale.
type Reference struct {
	Name       string
	SampleRate int
	// Samples is mono audio in [-1, 1].
	Samples []float64
}

// Len is the number of samples.
func (r *Reference) Len() int {
	return len(r.Samples)
}

// Duration is Len / SampleRate.
func (r *Reference) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(r.Samples)) * time.Second / time.Duration(r.SampleRate)
}

// ErrDecode wraps every failure to turn an uploaded file into a Reference.
var ErrDecode = errors.New("audio: cannot decode reference")

// LoadReference opens and decodes the WAV file at path.
func LoadReference(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()
	return DecodeWAV(f, filepath.Base(path))
}

// DecodeWAV decodes a PCM WAV stream, averaging channels down to mono. Either the whole
// file is decoded or an error is returned.
func DecodeWAV(r io.ReadSeeker, name string) (*Reference, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
		}
		return nil, fmt.Errorf("%w: %s: invalid wav file", ErrDecode, name)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: %s: unsupported wav format %d (want PCM)",
			ErrDecode, name, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}

	channels := buf.Format.NumChannels
	depth := buf.SourceBitDepth
	scale := float64(int(1) << uint(depth-1))
	var offset float64
	if depth == 8 {
		// 8 bit PCM is unsigned
		offset = scale
	}

	samples := make([]float64, len(buf.Data)/channels)
	for i := range samples {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		samples[i] = sum / float64(channels)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s: no samples", ErrDecode, name)
	}

	return &Reference{
		Name:       name,
		SampleRate: buf.Format.SampleRate,
		Samples:    samples,
	}, nil
}

// Package config loads the autopilot configuration from YAML. Every field has a default,
// so an empty document is a valid configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peragwin/autopilot/align/otw"
	"github.com/peragwin/autopilot/audio"
	"github.com/peragwin/autopilot/gfx"
	"github.com/peragwin/autopilot/session"
)

// Config is the top level configuration.
type Config struct {
	Server  Server         `yaml:"server"`
	Audio   audio.Config   `yaml:"audio"`
	Session session.Params `yaml:"session"`
	Align   otw.Params     `yaml:"align"`
	Render  Render         `yaml:"render"`

	// Reference and Annotations are loaded at startup when set.
	Reference   string `yaml:"reference"`
	Annotations string `yaml:"annotations"`
}

// Server configures the control API.
type Server struct {
	Addr string `yaml:"addr"`
	// StaticDir is served at / when set.
	StaticDir string `yaml:"staticDir"`
	// UploadDir holds the files uploadReference may name. Reference uploads over the API
	// are disabled when it is empty.
	UploadDir string `yaml:"uploadDir"`
}

// Render configures the waveform and oscilloscope views.
type Render struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	WindowSize  int    `yaml:"windowSize"`
	ScopeWidth  int    `yaml:"scopeWidth"`
	ScopeHeight int    `yaml:"scopeHeight"`
	Colors      Colors `yaml:"colors"`
}

// Colors override palette entries with "#rrggbb" values.
type Colors struct {
	Playback string `yaml:"playback"`
	OTW      string `yaml:"otw"`
	Marker   string `yaml:"marker"`
	Waveform string `yaml:"waveform"`
}

// Default returns the configuration used for fields missing from the file.
func Default() *Config {
	return &Config{
		Server: Server{Addr: "localhost:8080"},
		Audio: audio.Config{
			BlockSize:  512,
			Channels:   1,
			SampleRate: 44100,
			FFTSize:    16384,
		},
		Session: session.DefaultParams,
		Align:   otw.DefaultParams,
		Render: Render{
			Width:       600,
			Height:      100,
			WindowSize:  300,
			ScopeWidth:  300,
			ScopeHeight: 150,
		},
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the result. Unknown
// keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns every problem found in cfg, joined.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sampleRate %g must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.blockSize %d must be positive", cfg.Audio.BlockSize))
	}
	if cfg.Audio.Channels < 1 || cfg.Audio.Channels > 2 {
		errs = append(errs, fmt.Errorf("audio.channels %d must be 1 or 2", cfg.Audio.Channels))
	}
	if cfg.Audio.FFTSize < 2 || cfg.Audio.FFTSize%2 != 0 {
		errs = append(errs, fmt.Errorf("audio.fftSize %d must be even", cfg.Audio.FFTSize))
	}

	if cfg.Session.CapturePeriod <= 0 {
		errs = append(errs, fmt.Errorf("session.capturePeriod %s must be positive", cfg.Session.CapturePeriod))
	}
	if cfg.Session.PlaybackPeriod <= 0 {
		errs = append(errs, fmt.Errorf("session.playbackPeriod %s must be positive", cfg.Session.PlaybackPeriod))
	}
	if cfg.Session.VisSamples < 3 {
		errs = append(errs, fmt.Errorf("session.visSamples %d must be at least 3", cfg.Session.VisSamples))
	}

	if cfg.Align.SampleRate != cfg.Audio.SampleRate {
		errs = append(errs, fmt.Errorf("align.sampleRate %g does not match audio.sampleRate %g",
			cfg.Align.SampleRate, cfg.Audio.SampleRate))
	}
	if cfg.Align.NFFT <= 0 || cfg.Align.RefHop <= 0 {
		errs = append(errs, fmt.Errorf("align.nfft %d and align.refHop %d must be positive",
			cfg.Align.NFFT, cfg.Align.RefHop))
	}
	if cfg.Align.Band <= 0 || cfg.Align.MaxRunCount <= 0 {
		errs = append(errs, fmt.Errorf("align.band %d and align.maxRunCount %d must be positive",
			cfg.Align.Band, cfg.Align.MaxRunCount))
	}
	if cfg.Align.DiagWeight < 0 || cfg.Align.DiagWeight >= 2 {
		errs = append(errs, fmt.Errorf("align.diagWeight %.2f is out of range [0, 2)", cfg.Align.DiagWeight))
	}

	if cfg.Render.Width <= 0 || cfg.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be positive", cfg.Render.Width, cfg.Render.Height))
	}
	if cfg.Render.ScopeWidth <= 0 || cfg.Render.ScopeHeight <= 0 {
		errs = append(errs, fmt.Errorf("render scope size %dx%d must be positive",
			cfg.Render.ScopeWidth, cfg.Render.ScopeHeight))
	}
	if cfg.Render.WindowSize < 0 || cfg.Render.WindowSize > cfg.Session.VisSamples {
		errs = append(errs, fmt.Errorf("render.windowSize %d is out of range [0, %d]",
			cfg.Render.WindowSize, cfg.Session.VisSamples))
	}
	if _, err := cfg.Render.Palette(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Palette returns the default palette with the configured overrides applied.
func (r *Render) Palette() (gfx.Palette, error) {
	p := gfx.DefaultPalette
	var errs []error
	for _, o := range []struct {
		name, hex string
		dst       *color.Color
	}{
		{"playback", r.Colors.Playback, &p.Playback},
		{"otw", r.Colors.OTW, &p.OTW},
		{"marker", r.Colors.Marker, &p.Marker},
		{"waveform", r.Colors.Waveform, &p.Waveform},
	} {
		if o.hex == "" {
			continue
		}
		c, err := gfx.ParseHex(o.hex)
		if err != nil {
			errs = append(errs, fmt.Errorf("render.colors.%s %q: %w", o.name, o.hex, err))
			continue
		}
		*o.dst = c
	}
	return p, errors.Join(errs...)
}

// Package gfx holds what the waveform and oscilloscope views share: colors, fonts and
// fixed-size raster canvases backed by gonum/plot's vg.
package gfx

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette is the set of colors used by the views.
type Palette struct {
	Background      color.Color
	Waveform        color.Color
	Marker          color.Color
	Playback        color.Color
	OTW             color.Color
	PlaceholderFill color.Color
	PlaceholderText color.Color
	ScopeBackground color.Color
	ScopeTrace      color.Color
}

// DefaultPalette draws the playback cursor red and the OTW cursor blue.
var DefaultPalette = Palette{
	Background:      color.White,
	Waveform:        mustParseHex("#000000"),
	Marker:          mustParseHex("#00ddaa"),
	Playback:        mustParseHex("#dd0000"),
	OTW:             mustParseHex("#0000dd"),
	PlaceholderFill: mustParseHex("#dddddd"),
	PlaceholderText: mustParseHex("#444444"),
	ScopeBackground: mustParseHex("#343a40"),
	ScopeTrace:      color.White,
}

// ParseHex parses a "#rrggbb" color.
func ParseHex(s string) (color.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func mustParseHex(s string) color.Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Level maps v in [0, 1] from green through yellow to red.
func Level(v float64) color.Color {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return colorful.Hsv(120*(1-v), 0.9, 0.9)
}

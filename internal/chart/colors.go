package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB represents an RGB color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// NewRGB creates a new RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb or rrggbb.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return NewRGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Common colors.
var (
	ColorBlack = NewRGB(0, 0, 0)
	ColorGray  = NewRGB(149, 165, 166)

	// Series colors
	ColorBestPIQ  = NewRGB(0x2e, 0xcc, 0x71)
	ColorAvgPIQ   = NewRGB(0x34, 0x98, 0xdb)
	ColorForehand = NewRGB(0xe6, 0x7e, 0x22)
	ColorBackhand = NewRGB(0x9b, 0x59, 0xb6)
	ColorServe    = NewRGB(0xe7, 0x4c, 0x3c)
	ColorVolley   = NewRGB(0x1a, 0xbc, 0x9c)
	ColorSmash    = NewRGB(0xf1, 0xc4, 0x0f)

	// Spin colors
	ColorTopspin = NewRGB(0x16, 0xa0, 0x85)
	ColorSlice   = NewRGB(0x8e, 0x44, 0xad)
	ColorFlat    = NewRGB(0xf3, 0x9c, 0x12)

	// Diverging scale endpoints for correlations.
	ColorCool    = NewRGB(59, 76, 192)
	ColorNeutral = NewRGB(221, 221, 221)
	ColorWarm    = NewRGB(180, 4, 38)
)

// Palette maps series keys to colors.
type Palette map[string]RGB

// DefaultPalette returns the built-in colors for every series key.
func DefaultPalette() Palette {
	return Palette{
		"best_piq":       ColorBestPIQ,
		"avg_piq":        ColorAvgPIQ,
		"forehand":       ColorForehand,
		"backhand":       ColorBackhand,
		"serve":          ColorServe,
		"volley":         ColorVolley,
		"smash":          ColorSmash,
		"unknown":        ColorGray,
		"activity":       ColorBackhand,
		"forehand_score": ColorForehand,
		"backhand_score": ColorBackhand,
		"topspin":        ColorTopspin,
		"slice":          ColorSlice,
		"flat":           ColorFlat,
	}
}

// ParsePalette overlays hex colors on the default palette.
func ParsePalette(overrides map[string]string) (Palette, error) {
	p := DefaultPalette()
	for key, hex := range overrides {
		c, err := ParseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("palette %s: %w", key, err)
		}
		p[strings.ToLower(key)] = c
	}
	return p, nil
}

// Color returns the color for key, gray when the key is unknown.
func (p Palette) Color(key string) RGB {
	if c, ok := p[key]; ok {
		return c
	}
	if c, ok := DefaultPalette()[key]; ok {
		return c
	}
	return ColorGray
}

// LerpColor linearly interpolates between two colors.
func LerpColor(a, b RGB, t float64) RGB {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return NewRGB(
		uint8(float64(a.R)+t*float64(int(b.R)-int(a.R))),
		uint8(float64(a.G)+t*float64(int(b.G)-int(a.G))),
		uint8(float64(a.B)+t*float64(int(b.B)-int(a.B))),
	)
}

// Coolwarm maps a correlation in [-1, 1] onto a blue-white-red scale. NaN
// maps to the neutral color.
func Coolwarm(v float64) RGB {
	switch {
	case math.IsNaN(v):
		return ColorNeutral
	case v < 0:
		return LerpColor(ColorNeutral, ColorCool, -v)
	default:
		return LerpColor(ColorNeutral, ColorWarm, v)
	}
}

// ColorStop is one point of a continuous color scale.
type ColorStop struct {
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// CoolwarmScale returns the stops of Coolwarm for a presentation layer.
func CoolwarmScale() []ColorStop {
	return []ColorStop{
		{Value: -1, Color: ColorCool.Hex()},
		{Value: 0, Color: ColorNeutral.Hex()},
		{Value: 1, Color: ColorWarm.Hex()},
	}
}

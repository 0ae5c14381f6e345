// Package chart maps analysis results onto declarative chart specifications.
// It never computes statistics; every number comes from package analysis.
package chart

import (
	"math"
	"time"
)

// Kind is the chart type.
type Kind string

const (
	KindScatter   Kind = "scatter"
	KindHistogram Kind = "histogram"
	KindLine      Kind = "line"
	KindHeatmap   Kind = "heatmap"
	KindPie       Kind = "pie"
	KindBar       Kind = "bar"
)

// AxisType tells the presentation layer how to read point coordinates.
type AxisType string

const (
	AxisLinear   AxisType = "linear"
	AxisTime     AxisType = "time" // X holds Unix milliseconds
	AxisCategory AxisType = "category"
)

// Mode is how a series is drawn.
type Mode string

const (
	ModeMarkers Mode = "markers"
	ModeLines   Mode = "lines"
	ModeDashed  Mode = "dash"
)

// Axis describes one chart axis.
type Axis struct {
	Label string   `json:"label"`
	Type  AxisType `json:"type"`
	// Min and Max fix the range; nil lets the renderer autoscale.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Point is one data point. Category positions use Label.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Series is one colored trace.
type Series struct {
	Name    string  `json:"name"`
	Key     string  `json:"key"`
	Color   string  `json:"color"`
	Mode    Mode    `json:"mode,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Points  []Point `json:"points"`
}

// Matrix is heatmap data. Nil cells are undefined (constant columns).
type Matrix struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"`
	Colors [][]string   `json:"colors"`
	Scale  []ColorStop  `json:"scale"`
}

// Spec is one chart specification.
type Spec struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Kind    Kind      `json:"kind"`
	X       Axis      `json:"x"`
	Y       Axis      `json:"y"`
	Series  []Series  `json:"series,omitempty"`
	Matrix  *Matrix   `json:"matrix,omitempty"`
	Bins    []float64 `json:"bins,omitempty"` // histogram edges
	Empty   bool      `json:"empty"`
	Message string    `json:"message,omitempty"`
}

// Empty-state messages.
const (
	MessageNoShots    = "No shots match the selected filters."
	MessageNoSessions = "No sessions available."
	MessageNoSpin     = "No spin statistics recorded for this session."
	MessageNoData     = "No data after filtering."
)

func emptySpec(id, title string, kind Kind, msg string) Spec {
	return Spec{ID: id, Title: title, Kind: kind, Empty: true, Message: msg}
}

// Options controls optional series.
type Options struct {
	Palette     Palette
	ShowTrend   bool
	ShowRolling bool
	// RollingOpacity applies to rolling average and trend lines.
	RollingOpacity float64
	// MarkerOpacity applies to per-shot markers.
	MarkerOpacity float64
}

// DefaultOptions enables every optional series.
func DefaultOptions() Options {
	return Options{
		Palette:        DefaultPalette(),
		ShowTrend:      true,
		ShowRolling:    true,
		RollingOpacity: 0.5,
		MarkerOpacity:  0.7,
	}
}

// ApplyDefaults applies default values to zero fields.
func (o *Options) ApplyDefaults() {
	if o.Palette == nil {
		o.Palette = DefaultPalette()
	}
	if o.RollingOpacity == 0 {
		o.RollingOpacity = 0.5
	}
	if o.MarkerOpacity == 0 {
		o.MarkerOpacity = 0.7
	}
}

func timeX(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func ptr(v float64) *float64 {
	return &v
}

// finite converts NaN and infinities to nil for JSON output.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return ptr(v)
}

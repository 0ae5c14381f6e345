package chart

import (
	"github.com/blue-az/BabAnalysis/internal/analysis"
)

// Chart IDs of the session review view.
const (
	IDStrokeDistribution = "stroke_distribution"
	IDSpinByStroke       = "spin_by_stroke"
)

// StrokeDistribution is a pie of the session's per-stroke counts.
func StrokeDistribution(s analysis.SessionSummary, opts Options) Spec {
	opts.ApplyDefaults()
	title := "Shot Distribution"
	if s.TotalShots == 0 && allZero(s.Strokes) {
		return emptySpec(IDStrokeDistribution, title, KindPie, MessageNoShots)
	}
	return Spec{
		ID:     IDStrokeDistribution,
		Title:  title,
		Kind:   KindPie,
		X:      Axis{Label: "Shot Type", Type: AxisCategory},
		Y:      Axis{Label: "Count", Type: AxisLinear},
		Series: bucketSlices(s.Strokes, opts.Palette),
	}
}

// SpinByStroke is a grouped bar chart of spin counts per motion type, one
// series per spin type.
func SpinByStroke(s analysis.SessionSummary, opts Options) Spec {
	opts.ApplyDefaults()
	title := "Shot Distribution by Spin Type"
	if s.Spin.Empty() {
		return emptySpec(IDSpinByStroke, title, KindBar, MessageNoSpin)
	}

	spec := Spec{
		ID:    IDSpinByStroke,
		Title: title,
		Kind:  KindBar,
		X:     Axis{Label: "Shot Type", Type: AxisCategory},
		Y:     Axis{Label: "Count", Type: AxisLinear},
	}
	for j, spin := range s.Spin.SpinTypes {
		series := Series{
			Name:  spin,
			Key:   spin,
			Color: opts.Palette.Color(spin).Hex(),
		}
		for i, motion := range s.Spin.MotionTypes {
			series.Points = append(series.Points, Point{
				X:     float64(i),
				Y:     float64(s.Spin.Counts[i][j]),
				Label: motion,
			})
		}
		spec.Series = append(spec.Series, series)
	}
	return spec
}

// bucketSlices maps distribution buckets onto one single-point series per bucket
// so that each slice carries its own color.
func bucketSlices(buckets []analysis.Bucket, p Palette) []Series {
	out := make([]Series, 0, len(buckets))
	for i, b := range buckets {
		out = append(out, Series{
			Name:   b.Label,
			Key:    b.Label,
			Color:  p.Color(b.Label).Hex(),
			Points: []Point{{X: float64(i), Y: float64(b.Count), Label: b.Label}},
		})
	}
	return out
}

func allZero(buckets []analysis.Bucket) bool {
	for _, b := range buckets {
		if b.Count != 0 {
			return false
		}
	}
	return true
}

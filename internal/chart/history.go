package chart

import (
	"fmt"

	"github.com/blue-az/BabAnalysis/internal/analysis"
)

// Chart IDs of the historical view.
const (
	IDPIQHistory      = "piq_history"
	IDSpeedHistory    = "speed_history"
	IDActivityHistory = "activity_history"
)

// PIQHistory plots PIQ trends over sessions.
func PIQHistory(h analysis.History, opts Options) Spec {
	return historySpec(IDPIQHistory, "PIQ Score History", "PIQ Score", h, h.PIQ, nil, opts)
}

// SpeedHistory plots best speed trends over sessions. The y axis range is
// fixed to the padded range of the kept speeds.
func SpeedHistory(h analysis.History, speedUnit string, opts Options) Spec {
	return historySpec(IDSpeedHistory, "Best Shot Speed History", fmt.Sprintf("Speed (%s)", speedUnit), h, h.Speed, h.SpeedRange, opts)
}

// ActivityHistory plots activity level over sessions.
func ActivityHistory(h analysis.History, opts Options) Spec {
	return historySpec(IDActivityHistory, "Activity Level History", "Activity Level", h, h.Activity, nil, opts)
}

func historySpec(id, title, yLabel string, h analysis.History, trends []analysis.Trend, yRange *analysis.Range, opts Options) Spec {
	opts.ApplyDefaults()
	if h.Empty() {
		return emptySpec(id, title, KindLine, MessageNoSessions)
	}

	spec := Spec{
		ID:    id,
		Title: title,
		Kind:  KindLine,
		X:     Axis{Label: "Date", Type: AxisTime},
		Y:     Axis{Label: yLabel, Type: AxisLinear},
	}
	if yRange != nil {
		spec.Y.Min = ptr(yRange.Min)
		spec.Y.Max = ptr(yRange.Max)
	}

	for _, t := range trends {
		color := opts.Palette.Color(t.Key).Hex()
		spec.Series = append(spec.Series, Series{
			Name:   t.Name,
			Key:    t.Key,
			Color:  color,
			Mode:   ModeLines,
			Points: toPoints(t.Raw),
		})
		if opts.ShowRolling && len(t.Rolling) > 0 {
			spec.Series = append(spec.Series, Series{
				Name:    fmt.Sprintf("%s (%d-session Rolling Avg)", t.Name, h.Window),
				Key:     t.Key + "_rolling",
				Color:   ColorBlack.Hex(),
				Mode:    ModeLines,
				Opacity: opts.RollingOpacity,
				Points:  toPoints(t.Rolling),
			})
		}
		if opts.ShowTrend && len(t.Fit) > 0 {
			spec.Series = append(spec.Series, Series{
				Name:    t.Name + " Trend",
				Key:     t.Key + "_trend",
				Color:   color,
				Mode:    ModeDashed,
				Opacity: opts.RollingOpacity,
				Points:  toPoints(t.Fit),
			})
		}
	}
	return spec
}

func toPoints(points []analysis.Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: timeX(p.Time), Y: p.Value}
	}
	return out
}

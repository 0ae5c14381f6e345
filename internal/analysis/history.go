package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// Series keys. They double as palette keys for the chart layer.
const (
	KeyBestPIQ       = "best_piq"
	KeyAvgPIQ        = "avg_piq"
	KeyForehand      = "forehand"
	KeyBackhand      = "backhand"
	KeyServe         = "serve"
	KeyActivity      = "activity"
	KeyForehandScore = "forehand_score"
	KeyBackhandScore = "backhand_score"
)

// HistoryOptions selects the historical trends to compute.
type HistoryOptions struct {
	// Window is the rolling average window in sessions. 0 selects the default.
	Window int
	// ShowForehand and ShowBackhand add per-stroke series to the PIQ and
	// speed trends.
	ShowForehand bool
	ShowBackhand bool
	// MinSpeed drops speed points below it before smoothing and fitting.
	MinSpeed float64
}

// Point is one (time, value) observation.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Trend is one metric over sessions.
type Trend struct {
	Name string
	Key  string
	// Raw has one point per session.
	Raw []Point
	// Points are the Raw points kept for smoothing and fitting.
	Points []Point
	// Rolling is the trailing mean of Points.
	Rolling []Point
	// Fit is the least-squares line through Points; nil for fewer than two
	// distinct times.
	Fit []Point
	// Slope is the fitted change per day.
	Slope float64
}

// Range is a closed value interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Overall is the headline summary across every session.
type Overall struct {
	Sessions     int     `json:"sessions"`
	MeanPIQ      float64 `json:"mean_piq"`
	BestPIQ      float64 `json:"best_piq"`
	BestServe    float64 `json:"best_serve"`
	BestForehand float64 `json:"best_forehand"`
	BestBackhand float64 `json:"best_backhand"`
	MeanActivity float64 `json:"mean_activity"`
	BestActivity float64 `json:"best_activity"`
}

// History holds the historical trends across sessions.
type History struct {
	Window   int
	PIQ      []Trend
	Speed    []Trend
	Activity []Trend
	// SpeedRange bounds the kept speed points; nil when none remain.
	SpeedRange *Range
	Overall    Overall
}

// Empty reports whether there were no sessions.
func (h History) Empty() bool {
	return h.Overall.Sessions == 0
}

// BuildHistory computes trend series over wrangled sessions.
func BuildHistory(sessions []domain.Session, hopts HistoryOptions, opts Options) (History, error) {
	window, err := opts.window(hopts.Window)
	if err != nil {
		return History{}, err
	}
	if !(hopts.MinSpeed >= 0) || math.IsInf(hopts.MinSpeed, 1) {
		return History{}, invalidQuery("minimum speed must be a finite non-negative number, got %g", hopts.MinSpeed)
	}
	h := History{Window: window}
	if len(sessions) == 0 {
		return h, nil
	}

	ordered := append([]domain.Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})
	times := make([]time.Time, len(ordered))
	for i, s := range ordered {
		times[i] = s.Start
	}
	col := func(f func(domain.Session) float64) []float64 {
		out := make([]float64, len(ordered))
		for i, s := range ordered {
			out[i] = f(s)
		}
		return out
	}

	none := keep{}
	speedKeep := keep{removeZeros: true, min: hopts.MinSpeed, hasMin: true}

	h.PIQ = append(h.PIQ,
		trend("Best PIQ", KeyBestPIQ, times, col(func(s domain.Session) float64 { return s.MaxPIQScore }), window, none),
		trend("Average PIQ", KeyAvgPIQ, times, col(func(s domain.Session) float64 { return s.PIQScore }), window, none),
	)
	if hopts.ShowForehand {
		h.PIQ = append(h.PIQ, trend("Forehand Avg Score", KeyForehandScore, times,
			col(func(s domain.Session) float64 { return s.ForehandAvgScore }), window, none))
	}
	if hopts.ShowBackhand {
		h.PIQ = append(h.PIQ, trend("Backhand Avg Score", KeyBackhandScore, times,
			col(func(s domain.Session) float64 { return s.BackhandAvgScore }), window, none))
	}

	h.Speed = append(h.Speed, trend("Best Serve Speed", KeyServe, times,
		col(func(s domain.Session) float64 { return s.Speeds.Serve }), window, speedKeep))
	if hopts.ShowForehand {
		h.Speed = append(h.Speed, trend("Best Forehand Speed", KeyForehand, times,
			col(func(s domain.Session) float64 { return s.Speeds.Forehand }), window, speedKeep))
	}
	if hopts.ShowBackhand {
		h.Speed = append(h.Speed, trend("Best Backhand Speed", KeyBackhand, times,
			col(func(s domain.Session) float64 { return s.Speeds.Backhand }), window, speedKeep))
	}
	h.SpeedRange = speedRange(h.Speed, hopts.MinSpeed)

	h.Activity = append(h.Activity, trend("Activity Level", KeyActivity, times,
		col(func(s domain.Session) float64 { return s.ActivityLevel }), window, none))

	h.Overall = overall(ordered)
	return h, nil
}

type keep struct {
	removeZeros bool
	hasMin      bool
	min         float64
}

func (k keep) ok(v float64) bool {
	if k.removeZeros && v <= 0 {
		return false
	}
	if k.hasMin && v < k.min {
		return false
	}
	return true
}

func trend(name, key string, times []time.Time, values []float64, window int, k keep) Trend {
	t := Trend{Name: name, Key: key, Raw: make([]Point, len(values))}
	var kept []float64
	for i, v := range values {
		p := Point{Time: times[i], Value: v}
		t.Raw[i] = p
		if k.ok(v) {
			t.Points = append(t.Points, p)
			kept = append(kept, v)
		}
	}
	if len(t.Points) == 0 {
		return t
	}

	avg := RollingMean(kept, window)
	t.Rolling = make([]Point, len(avg))
	for i, v := range avg {
		t.Rolling[i] = Point{Time: t.Points[i].Time, Value: v}
	}

	t.Fit, t.Slope = fitLine(t.Points)
	return t
}

// fitLine fits value against days since the first point.
func fitLine(points []Point) ([]Point, float64) {
	if len(points) < 2 {
		return nil, 0
	}
	origin := points[0].Time
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Time.Sub(origin).Hours() / 24
		ys[i] = p.Value
	}
	if floats.Max(xs) == floats.Min(xs) {
		return nil, 0
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	fit := make([]Point, len(points))
	for i, p := range points {
		fit[i] = Point{Time: p.Time, Value: alpha + beta*xs[i]}
	}
	return fit, beta
}

// speedRange pads the kept speeds by 10% on both ends, never reaching below
// minSpeed.
func speedRange(trends []Trend, minSpeed float64) *Range {
	var all []float64
	for _, t := range trends {
		for _, p := range t.Points {
			all = append(all, p.Value)
		}
	}
	if len(all) == 0 {
		return nil
	}
	return &Range{
		Min: max(minSpeed, floats.Min(all)*0.9),
		Max: floats.Max(all) * 1.1,
	}
}

func overall(sessions []domain.Session) Overall {
	o := Overall{Sessions: len(sessions)}
	piq := make([]float64, len(sessions))
	activity := make([]float64, len(sessions))
	for i, s := range sessions {
		piq[i] = s.PIQScore
		activity[i] = s.ActivityLevel
		o.BestPIQ = max(o.BestPIQ, s.MaxPIQScore)
		o.BestServe = max(o.BestServe, s.Speeds.Serve)
		o.BestForehand = max(o.BestForehand, s.Speeds.Forehand)
		o.BestBackhand = max(o.BestBackhand, s.Speeds.Backhand)
		o.BestActivity = max(o.BestActivity, s.ActivityLevel)
	}
	o.MeanPIQ = stat.Mean(piq, nil)
	o.MeanActivity = stat.Mean(activity, nil)
	return o
}

package chart

import (
	"fmt"

	"github.com/blue-az/BabAnalysis/internal/analysis"
	"github.com/blue-az/BabAnalysis/internal/domain"
)

// Chart IDs of the shot analysis view.
const (
	IDShotTypes        = "shot_types"
	IDSpinDistribution = "spin_distribution"
	IDSpeedProgression = "speed_progression"
	IDCorrelation      = "correlation"
	IDScatter          = "scatter"
	IDHistogram        = "histogram"
)

// ScatterOptions selects the scatter axes and jitter.
type ScatterOptions struct {
	X, Y domain.Metric
	// Jitter in [0, 1] scales Gaussian noise of 10% of each column's
	// standard deviation. 0 disables it.
	Jitter float64
	Seed   uint64
}

// ApplyDefaults applies default values to zero fields.
func (o *ScatterOptions) ApplyDefaults() {
	if o.X == "" {
		o.X = domain.MetricPIQ
	}
	if o.Y == "" {
		o.Y = domain.MetricStyleScore
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
}

// ShotTypeDistribution is a pie of the filtered shots per shot type.
func ShotTypeDistribution(r analysis.ShotReport, opts Options) Spec {
	opts.ApplyDefaults()
	title := "Shot Type Distribution"
	if r.Empty() {
		return emptySpec(IDShotTypes, title, KindPie, MessageNoShots)
	}
	return Spec{
		ID:     IDShotTypes,
		Title:  title,
		Kind:   KindPie,
		X:      Axis{Label: "Shot Type", Type: AxisCategory},
		Y:      Axis{Label: "Count", Type: AxisLinear},
		Series: bucketSlices(r.ShotTypes, opts.Palette),
	}
}

// SpinDistribution is a bar chart of the filtered shots per spin type.
func SpinDistribution(r analysis.ShotReport, opts Options) Spec {
	opts.ApplyDefaults()
	title := "Spin Distribution"
	if r.Empty() {
		return emptySpec(IDSpinDistribution, title, KindBar, MessageNoShots)
	}
	return Spec{
		ID:     IDSpinDistribution,
		Title:  title,
		Kind:   KindBar,
		X:      Axis{Label: "Spin Type", Type: AxisCategory},
		Y:      Axis{Label: "Count", Type: AxisLinear},
		Series: bucketSlices(r.Spins, opts.Palette),
	}
}

// SpeedProgression plots each shot's display speed over time, one marker
// series per shot type, plus the rolling average line.
func SpeedProgression(r analysis.ShotReport, speedUnit string, opts Options) Spec {
	opts.ApplyDefaults()
	title := "Speed Progression"
	if r.Empty() {
		return emptySpec(IDSpeedProgression, title, KindLine, MessageNoShots)
	}

	spec := Spec{
		ID:    IDSpeedProgression,
		Title: title,
		Kind:  KindLine,
		X:     Axis{Label: "Time", Type: AxisTime},
		Y:     Axis{Label: fmt.Sprintf("Speed (%s)", speedUnit), Type: AxisLinear},
	}

	byType := make(map[domain.ShotType][]Point)
	avg := make([]Point, len(r.Rolling))
	for i, p := range r.Rolling {
		x := timeX(p.Time)
		byType[p.Type] = append(byType[p.Type], Point{X: x, Y: p.Speed})
		avg[i] = Point{X: x, Y: p.Average}
	}
	for _, t := range domain.ShotTypes {
		points, ok := byType[t]
		if !ok {
			continue
		}
		spec.Series = append(spec.Series, Series{
			Name:    string(t),
			Key:     string(t),
			Color:   opts.Palette.Color(string(t)).Hex(),
			Mode:    ModeMarkers,
			Opacity: opts.MarkerOpacity,
			Points:  points,
		})
	}
	if opts.ShowRolling {
		spec.Series = append(spec.Series, Series{
			Name:    fmt.Sprintf("%d-shot Moving Average", r.Window),
			Key:     "rolling",
			Color:   ColorBlack.Hex(),
			Mode:    ModeLines,
			Opacity: opts.RollingOpacity,
			Points:  avg,
		})
	}
	return spec
}

// CorrelationHeatmap renders the correlation matrix on the cool/warm scale.
// Undefined cells are nil.
func CorrelationHeatmap(r analysis.ShotReport) Spec {
	title := "Metric Correlations"
	if r.Empty() {
		return emptySpec(IDCorrelation, title, KindHeatmap, MessageNoShots)
	}
	c := r.Correlation
	if c.Len() == 0 {
		return emptySpec(IDCorrelation, title, KindHeatmap, "At least two shots are needed for correlations.")
	}

	m := &Matrix{
		Labels: make([]string, c.Len()),
		Values: make([][]*float64, c.Len()),
		Colors: make([][]string, c.Len()),
		Scale:  CoolwarmScale(),
	}
	for i, metric := range c.Metrics {
		m.Labels[i] = string(metric)
		m.Values[i] = make([]*float64, c.Len())
		m.Colors[i] = make([]string, c.Len())
		for j, v := range c.Values[i] {
			m.Values[i][j] = finite(v)
			m.Colors[i][j] = Coolwarm(v).Hex()
		}
	}
	return Spec{
		ID:     IDCorrelation,
		Title:  title,
		Kind:   KindHeatmap,
		X:      Axis{Label: "Metric", Type: AxisCategory},
		Y:      Axis{Label: "Metric", Type: AxisCategory},
		Matrix: m,
	}
}

// Scatter plots two shot metrics against each other, one series per shot
// type.
func Scatter(r analysis.ShotReport, so ScatterOptions, opts Options) Spec {
	opts.ApplyDefaults()
	so.ApplyDefaults()
	title := fmt.Sprintf("%s vs %s", so.X, so.Y)
	if r.Empty() {
		return emptySpec(IDScatter, title, KindScatter, MessageNoShots)
	}

	xs := analysis.Column(r.Shots, so.X)
	ys := analysis.Column(r.Shots, so.Y)
	if so.Jitter > 0 {
		xs = analysis.Jitter(xs, so.Jitter, so.Seed)
		ys = analysis.Jitter(ys, so.Jitter, so.Seed+1)
	}

	byType := make(map[domain.ShotType][]Point)
	for i, s := range r.Shots {
		byType[s.Type] = append(byType[s.Type], Point{X: xs[i], Y: ys[i]})
	}

	spec := Spec{
		ID:    IDScatter,
		Title: title,
		Kind:  KindScatter,
		X:     Axis{Label: string(so.X), Type: AxisLinear},
		Y:     Axis{Label: string(so.Y), Type: AxisLinear},
	}
	for _, t := range domain.ShotTypes {
		points, ok := byType[t]
		if !ok {
			continue
		}
		spec.Series = append(spec.Series, Series{
			Name:    string(t),
			Key:     string(t),
			Color:   opts.Palette.Color(string(t)).Hex(),
			Mode:    ModeMarkers,
			Opacity: opts.MarkerOpacity,
			Points:  points,
		})
	}
	return spec
}

// Histogram renders pre-binned counts per shot type. Point X is the bin
// index into Spec.Bins.
func Histogram(h analysis.TypeHistogram, opts Options) Spec {
	opts.ApplyDefaults()
	title := fmt.Sprintf("Distribution of %s", h.Metric)
	if len(h.Types) == 0 {
		return emptySpec(IDHistogram, title, KindHistogram, MessageNoShots)
	}

	spec := Spec{
		ID:    IDHistogram,
		Title: title,
		Kind:  KindHistogram,
		X:     Axis{Label: string(h.Metric), Type: AxisLinear},
		Y:     Axis{Label: "Count", Type: AxisLinear},
		Bins:  append([]float64(nil), h.Edges...),
	}
	for i, t := range h.Types {
		series := Series{
			Name:  string(t),
			Key:   string(t),
			Color: opts.Palette.Color(string(t)).Hex(),
		}
		for j, b := range h.Bins[i] {
			series.Points = append(series.Points, Point{X: float64(j), Y: float64(b.Count)})
		}
		spec.Series = append(spec.Series, series)
	}
	return spec
}

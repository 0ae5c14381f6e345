// Package analysis aggregates wrangled sessions and shots into the data
// behind each chart: distributions, rolling averages, correlations, summary
// statistics and historical trends.
package analysis

import (
	"strings"
	"time"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// DefaultRollingWindow is the rolling average window used when none is set.
const DefaultRollingWindow = 5

// Options are the analysis defaults taken from configuration.
type Options struct {
	RollingWindow int
}

// DefaultOptions returns the built-in analysis defaults.
func DefaultOptions() Options {
	return Options{RollingWindow: DefaultRollingWindow}
}

func (o Options) window(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, invalidQuery("rolling window must be positive, got %d", requested)
	case requested > 0:
		return requested, nil
	case o.RollingWindow > 0:
		return o.RollingWindow, nil
	default:
		return DefaultRollingWindow, nil
	}
}

// Query selects the shots of one session to analyze.
type Query struct {
	SessionID int64
	// ShotTypes and Spins restrict the shots analyzed. Empty means all.
	ShotTypes []domain.ShotType
	Spins     []domain.SpinType
	// RawTypes restricts by the sensor's own stroke label, such as
	// "FOREHAND_FLAT". Matching ignores case.
	RawTypes []string
	// Window is the rolling average window in shots. 0 selects the default.
	Window int
}

// Bucket is one slice of a categorical distribution.
type Bucket struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// RollingPoint is one shot of the speed progression.
type RollingPoint struct {
	Index   int
	Time    time.Time
	Type    domain.ShotType
	Speed   float64
	Average float64
}

// ShotReport holds every shot-level aggregate for one query.
type ShotReport struct {
	SessionID int64
	Window    int

	// Shots are the filtered shots in time order.
	Shots []domain.Shot

	ShotTypes   []Bucket
	Spins       []Bucket
	Rolling     []RollingPoint
	Correlation CorrelationMatrix
	Summary     []Summary
}

// Empty reports whether no shot matched the query.
func (r ShotReport) Empty() bool {
	return len(r.Shots) == 0
}

// AnalyzeShots filters shots by q and computes the shot type and spin
// distributions, the rolling average of display speed, the correlation matrix
// of the numeric columns and per-column summary statistics. Shots from other
// sessions are ignored. A filter matching nothing, including a type or spin
// outside the known values, yields an empty report.
func AnalyzeShots(shots []domain.Shot, q Query, opts Options) (ShotReport, error) {
	window, err := opts.window(q.Window)
	if err != nil {
		return ShotReport{}, err
	}
	report := ShotReport{SessionID: q.SessionID, Window: window}
	report.Shots = Filter(shots, q)
	if report.Empty() {
		return report, nil
	}

	report.ShotTypes = shotTypeBuckets(report.Shots)
	report.Spins = spinBuckets(report.Shots)

	speeds := Column(report.Shots, domain.MetricSpeed)
	avg := RollingMean(speeds, window)
	report.Rolling = make([]RollingPoint, len(report.Shots))
	for i, s := range report.Shots {
		report.Rolling[i] = RollingPoint{
			Index:   i,
			Time:    s.Time,
			Type:    s.Type,
			Speed:   speeds[i],
			Average: avg[i],
		}
	}

	report.Correlation = Correlate(report.Shots, domain.ShotMetrics)

	report.Summary = make([]Summary, len(domain.ShotMetrics))
	for i, m := range domain.ShotMetrics {
		report.Summary[i] = Describe(m, Column(report.Shots, m))
	}

	return report, nil
}

// Filter returns the shots of q.SessionID matching the type, spin and raw
// type filters. A zero SessionID matches every session.
func Filter(shots []domain.Shot, q Query) []domain.Shot {
	types := make(map[domain.ShotType]bool, len(q.ShotTypes))
	for _, t := range q.ShotTypes {
		types[t] = true
	}
	spins := make(map[domain.SpinType]bool, len(q.Spins))
	for _, s := range q.Spins {
		spins[s] = true
	}
	raw := make(map[string]bool, len(q.RawTypes))
	for _, r := range q.RawTypes {
		raw[strings.ToUpper(strings.TrimSpace(r))] = true
	}

	var out []domain.Shot
	for _, s := range shots {
		if q.SessionID != 0 && s.SessionID != q.SessionID {
			continue
		}
		if len(types) > 0 && !types[s.Type] {
			continue
		}
		if len(spins) > 0 && !spins[s.Spin] {
			continue
		}
		if len(raw) > 0 && !raw[strings.ToUpper(strings.TrimSpace(s.RawType))] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// GroupByType splits shots per shot type. Types with no shots are absent.
func GroupByType(shots []domain.Shot) map[domain.ShotType][]domain.Shot {
	out := make(map[domain.ShotType][]domain.Shot)
	for _, s := range shots {
		out[s.Type] = append(out[s.Type], s)
	}
	return out
}

func shotTypeBuckets(shots []domain.Shot) []Bucket {
	counts := make(map[domain.ShotType]int)
	for _, s := range shots {
		counts[s.Type]++
	}
	var out []Bucket
	for _, t := range domain.ShotTypes {
		if n := counts[t]; n > 0 {
			out = append(out, bucket(string(t), n, len(shots)))
		}
	}
	return out
}

func spinBuckets(shots []domain.Shot) []Bucket {
	counts := make(map[domain.SpinType]int)
	for _, s := range shots {
		counts[s.Spin]++
	}
	var out []Bucket
	for _, t := range domain.SpinTypes {
		if n := counts[t]; n > 0 {
			out = append(out, bucket(string(t), n, len(shots)))
		}
	}
	return out
}

func bucket(label string, n, total int) Bucket {
	b := Bucket{Label: label, Count: n}
	if total > 0 {
		b.Percent = float64(n) / float64(total) * 100
	}
	return b
}

// TypeHistogram bins one metric per shot type over edges shared by all types.
type TypeHistogram struct {
	Metric domain.Metric
	Edges  []float64
	// Bins[i] holds the counts of Types[i].
	Types []domain.ShotType
	Bins  [][]Bin
}

// MaxHistogramBins bounds the bin count of a histogram.
const MaxHistogramBins = 100

// HistogramByType bins metric m into the given number of bins, split by
// shot type.
func HistogramByType(shots []domain.Shot, m domain.Metric, bins int) (TypeHistogram, error) {
	if bins < 1 || bins > MaxHistogramBins {
		return TypeHistogram{}, invalidQuery("bin count must be within [1, %d], got %d", MaxHistogramBins, bins)
	}
	h := TypeHistogram{Metric: m, Edges: BinEdges(Column(shots, m), bins)}
	groups := GroupByType(shots)
	for _, t := range domain.ShotTypes {
		group, ok := groups[t]
		if !ok {
			continue
		}
		h.Types = append(h.Types, t)
		h.Bins = append(h.Bins, Histogram(Column(group, m), h.Edges))
	}
	return h, nil
}

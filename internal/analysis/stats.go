package analysis

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// RollingMean returns the trailing mean of values over window. Leading
// positions with fewer than window predecessors average whatever is
// available, so the output has the same length as the input.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := min(i+1, window)
		out[i] = sum / float64(n)
	}
	return out
}

// CorrelationMatrix is a symmetric Pearson correlation matrix.
type CorrelationMatrix struct {
	Metrics []domain.Metric
	// Values[i][j] is the correlation of Metrics[i] and Metrics[j]. Entries
	// involving a constant column are NaN.
	Values [][]float64
}

// Len returns the matrix dimension.
func (c CorrelationMatrix) Len() int {
	return len(c.Metrics)
}

// Correlate computes pairwise Pearson correlations of the given shot metrics.
// Fewer than two shots yields an empty matrix.
func Correlate(shots []domain.Shot, metrics []domain.Metric) CorrelationMatrix {
	if len(shots) < 2 {
		return CorrelationMatrix{}
	}

	columns := make([][]float64, len(metrics))
	degenerate := make([]bool, len(metrics))
	for i, m := range metrics {
		columns[i] = Column(shots, m)
		degenerate[i] = floats.Max(columns[i]) == floats.Min(columns[i])
	}

	values := make([][]float64, len(metrics))
	for i := range values {
		values[i] = make([]float64, len(metrics))
	}
	for i := range metrics {
		for j := i; j < len(metrics); j++ {
			var r float64
			switch {
			case degenerate[i] || degenerate[j]:
				r = math.NaN()
			case i == j:
				r = 1
			default:
				r = stat.Correlation(columns[i], columns[j], nil)
				// Rounding can push |r| past 1 for collinear columns.
				r = math.Max(-1, math.Min(1, r))
			}
			values[i][j] = r
			values[j][i] = r
		}
	}

	return CorrelationMatrix{
		Metrics: append([]domain.Metric(nil), metrics...),
		Values:  values,
	}
}

// Column extracts one metric from shots.
func Column(shots []domain.Shot, m domain.Metric) []float64 {
	out := make([]float64, len(shots))
	for i, s := range shots {
		out[i] = s.Value(m)
	}
	return out
}

// Summary describes one numeric column.
type Summary struct {
	Metric domain.Metric `json:"metric"`
	Count  int           `json:"count"`
	Mean   float64       `json:"mean"`
	// Std is the sample standard deviation, 0 for fewer than two values.
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe summarizes values. An empty input yields a zero Summary with
// Count 0.
func Describe(m domain.Metric, values []float64) Summary {
	s := Summary{Metric: m, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	s.Median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return s
}

// Bin is one histogram bucket covering [Lo, Hi). The last bin also includes Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// BinEdges returns bins+1 evenly spaced edges spanning values. A constant
// column gets a unit wide range centered on its value.
func BinEdges(values []float64, bins int) []float64 {
	if len(values) == 0 || bins < 1 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := make([]float64, bins+1)
	return floats.Span(edges, lo, hi)
}

// Histogram counts values into the bins delimited by edges.
func Histogram(values []float64, edges []float64) []Bin {
	if len(edges) < 2 {
		return nil
	}
	out := make([]Bin, len(edges)-1)
	for i := range out {
		out[i] = Bin{Lo: edges[i], Hi: edges[i+1]}
	}
	last := len(out) - 1
	for _, v := range values {
		if v < edges[0] || v > edges[len(edges)-1] {
			continue
		}
		idx := sort.SearchFloat64s(edges, v)
		// SearchFloat64s returns the first edge >= v; values on an inner
		// edge belong to the bin starting there.
		if idx < len(edges) && edges[idx] == v {
			idx++
		}
		idx--
		if idx > last {
			idx = last
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out
}

// Jitter returns a copy of values with Gaussian noise of standard deviation
// std(values) × amount × 0.1 added. The same seed always yields the same
// noise.
func Jitter(values []float64, amount float64, seed uint64) []float64 {
	out := append([]float64(nil), values...)
	if len(values) < 2 || amount <= 0 {
		return out
	}
	sigma := stat.StdDev(values, nil) * amount * 0.1
	if sigma == 0 || math.IsNaN(sigma) {
		return out
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range out {
		out[i] += rng.NormFloat64() * sigma
	}
	return out
}

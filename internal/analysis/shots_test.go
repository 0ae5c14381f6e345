package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testShots() []domain.Shot {
	return []domain.Shot{
		{ID: 1, SessionID: 1, Time: base, Type: domain.ShotForehand, Spin: domain.SpinTopspin, PIQ: 60, StyleScore: 5, SpeedScore: 6, Speed: 60, SpeedValue: 60 / 2.25, EffectScore: 3},
		{ID: 2, SessionID: 1, Time: base.Add(time.Minute), Type: domain.ShotBackhand, Spin: domain.SpinSlice, PIQ: 40, StyleScore: 3, SpeedScore: 4, Speed: 52, SpeedValue: 52 / 2.25, EffectScore: 3},
		{ID: 3, SessionID: 1, Time: base.Add(2 * time.Minute), Type: domain.ShotForehand, Spin: domain.SpinFlat, PIQ: 80, StyleScore: 7, SpeedScore: 8, Speed: 70, SpeedValue: 70 / 2.25, EffectScore: 3},
		{ID: 4, SessionID: 1, Time: base.Add(3 * time.Minute), Type: domain.ShotForehand, Spin: domain.SpinTopspin, PIQ: 70, StyleScore: 6, SpeedScore: 6, Speed: 64, SpeedValue: 64 / 2.25, EffectScore: 3},
		{ID: 5, SessionID: 2, Time: base.Add(24 * time.Hour), Type: domain.ShotServe, Spin: domain.SpinFlat, PIQ: 90, Speed: 95, SpeedValue: 95 / 2.25},
	}
}

func TestRollingMeanConstant(t *testing.T) {
	values := []float64{55, 55, 55, 55, 55, 55}
	for w := 1; w <= len(values); w++ {
		for i, v := range RollingMean(values, w) {
			assert.InDelta(t, 55.0, v, 1e-12, "window %d index %d", w, i)
		}
	}
}

func TestRollingMeanPartialWindows(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4}, got, 1e-12)

	assert.Empty(t, RollingMean(nil, 3))
	assert.Equal(t, []float64{1, 2}, RollingMean([]float64{1, 2}, 0))
}

func TestCorrelateSymmetricUnitDiagonal(t *testing.T) {
	metrics := []domain.Metric{domain.MetricPIQ, domain.MetricStyleScore, domain.MetricSpeedScore, domain.MetricSpeed}
	m := Correlate(testShots()[:4], metrics)

	require.Equal(t, len(metrics), m.Len())
	for i := range metrics {
		assert.InDelta(t, 1.0, m.Values[i][i], 1e-12)
		for j := range metrics {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
			assert.LessOrEqual(t, math.Abs(m.Values[i][j]), 1.0)
		}
	}
	// PIQ and style score move together in the fixture.
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-9)
}

func TestCorrelateConstantColumn(t *testing.T) {
	metrics := []domain.Metric{domain.MetricPIQ, domain.MetricEffectScore}
	m := Correlate(testShots()[:4], metrics)

	assert.True(t, math.IsNaN(m.Values[0][1]))
	assert.True(t, math.IsNaN(m.Values[1][0]))
	assert.True(t, math.IsNaN(m.Values[1][1]))
	assert.Equal(t, 1.0, m.Values[0][0])
}

func TestCorrelateTooFewShots(t *testing.T) {
	assert.Zero(t, Correlate(testShots()[:1], domain.ShotMetrics).Len())
}

func TestAnalyzeShots(t *testing.T) {
	report, err := AnalyzeShots(testShots(), Query{SessionID: 1}, DefaultOptions())
	require.NoError(t, err)

	require.False(t, report.Empty())
	assert.Len(t, report.Shots, 4)
	assert.Equal(t, DefaultRollingWindow, report.Window)

	require.Len(t, report.ShotTypes, 2)
	assert.Equal(t, Bucket{Label: "forehand", Count: 3, Percent: 75}, report.ShotTypes[0])
	assert.Equal(t, Bucket{Label: "backhand", Count: 1, Percent: 25}, report.ShotTypes[1])

	require.Len(t, report.Spins, 3)
	assert.Equal(t, "topspin", report.Spins[0].Label)
	assert.Equal(t, 2, report.Spins[0].Count)

	require.Len(t, report.Rolling, 4)
	assert.InDelta(t, 60.0, report.Rolling[0].Average, 1e-9)
	assert.InDelta(t, 56.0, report.Rolling[1].Average, 1e-9)
	assert.InDelta(t, 61.5, report.Rolling[3].Average, 1e-9)

	assert.Equal(t, len(domain.ShotMetrics), report.Correlation.Len())
	require.Len(t, report.Summary, len(domain.ShotMetrics))
	assert.Equal(t, domain.MetricPIQ, report.Summary[0].Metric)
	assert.Equal(t, 4, report.Summary[0].Count)
}

func TestAnalyzeShotsFilters(t *testing.T) {
	q := Query{SessionID: 1, ShotTypes: []domain.ShotType{domain.ShotForehand}, Spins: []domain.SpinType{domain.SpinTopspin}, Window: 2}
	report, err := AnalyzeShots(testShots(), q, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, report.Shots, 2)
	assert.Equal(t, 2, report.Window)
	assert.InDelta(t, 62.0, report.Rolling[1].Average, 1e-9)
}

func TestFilterRawTypes(t *testing.T) {
	shots := testShots()
	shots[0].RawType = "FOREHAND_FLAT"
	shots[2].RawType = "FOREHAND_TOPSPIN"
	shots[3].RawType = "FOREHAND_FLAT"

	got := Filter(shots, Query{SessionID: 1, RawTypes: []string{"forehand_flat"}})
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)

	got = Filter(shots, Query{SessionID: 1, RawTypes: []string{"FOREHAND_FLAT"}, Spins: []domain.SpinType{domain.SpinTopspin}})
	assert.Len(t, got, 2)

	assert.Empty(t, Filter(shots, Query{RawTypes: []string{"PADDLE_SWING"}}))
}

func TestAnalyzeShotsServeFilterYieldsEmpty(t *testing.T) {
	q := Query{SessionID: 1, ShotTypes: []domain.ShotType{domain.ShotServe}}
	report, err := AnalyzeShots(testShots(), q, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, report.Empty())
	assert.Empty(t, report.ShotTypes)
	assert.Empty(t, report.Spins)
	assert.Empty(t, report.Rolling)
	assert.Zero(t, report.Correlation.Len())
}

func TestAnalyzeShotsUnknownTypeFilter(t *testing.T) {
	q := Query{ShotTypes: []domain.ShotType{domain.ShotUnknown}}
	report, err := AnalyzeShots(testShots(), q, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestAnalyzeShotsUnrecognizedFilterValues(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"shot type", Query{ShotTypes: []domain.ShotType{"lob"}}},
		{"spin", Query{Spins: []domain.SpinType{"sidespin"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := AnalyzeShots(testShots(), tt.q, DefaultOptions())
			require.NoError(t, err)
			assert.True(t, report.Empty())
			assert.Nil(t, report.ShotTypes)
			assert.Nil(t, report.Rolling)
		})
	}
}

func TestAnalyzeShotsInvalidQuery(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"negative window", Query{Window: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AnalyzeShots(testShots(), tt.q, DefaultOptions())
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("AnalyzeShots() error = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestWindowFallsBackToConfigured(t *testing.T) {
	report, err := AnalyzeShots(testShots(), Query{SessionID: 1}, Options{RollingWindow: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Window)

	report, err = AnalyzeShots(testShots(), Query{SessionID: 1}, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRollingWindow, report.Window)
}

func TestDescribe(t *testing.T) {
	s := Describe(domain.MetricPIQ, []float64{80, 40, 60, 70})

	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 62.5, s.Mean, 1e-9)
	assert.InDelta(t, 17.0782512765993, s.Std, 1e-9)
	assert.Equal(t, 40.0, s.Min)
	assert.Equal(t, 80.0, s.Max)
	assert.True(t, s.Min <= s.Q25 && s.Q25 <= s.Median && s.Median <= s.Q75 && s.Q75 <= s.Max)
}

func TestDescribeEdgeCases(t *testing.T) {
	assert.Equal(t, Summary{Metric: domain.MetricPIQ}, Describe(domain.MetricPIQ, nil))

	one := Describe(domain.MetricPIQ, []float64{42})
	assert.Equal(t, 1, one.Count)
	assert.Zero(t, one.Std)
	assert.Equal(t, 42.0, one.Median)
}

func TestHistogram(t *testing.T) {
	values := []float64{0, 0.5, 1, 1.5, 2}
	edges := BinEdges(values, 2)
	require.Equal(t, []float64{0, 1, 2}, edges)

	bins := Histogram(values, edges)
	require.Len(t, bins, 2)
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, 3, bins[1].Count)

	assert.Nil(t, BinEdges(nil, 3))
	assert.Nil(t, Histogram(values, []float64{1}))
}

func TestBinEdgesConstant(t *testing.T) {
	edges := BinEdges([]float64{5, 5, 5}, 1)
	assert.Equal(t, []float64{4.5, 5.5}, edges)
	assert.Equal(t, 3, Histogram([]float64{5, 5, 5}, edges)[0].Count)
}

func TestHistogramByType(t *testing.T) {
	h, err := HistogramByType(testShots()[:4], domain.MetricPIQ, 4)
	require.NoError(t, err)

	assert.Equal(t, []domain.ShotType{domain.ShotForehand, domain.ShotBackhand}, h.Types)
	require.Len(t, h.Bins, 2)
	total := 0
	for _, bins := range h.Bins {
		for _, b := range bins {
			total += b.Count
		}
	}
	assert.Equal(t, 4, total)

	_, err = HistogramByType(testShots(), domain.MetricPIQ, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestHistogramByTypeBinBounds(t *testing.T) {
	for _, bins := range []int{0, -1, MaxHistogramBins + 1, math.MaxInt} {
		_, err := HistogramByType(testShots(), domain.MetricPIQ, bins)
		assert.ErrorIs(t, err, ErrInvalidQuery, "bins=%d", bins)
	}

	h, err := HistogramByType(testShots(), domain.MetricPIQ, MaxHistogramBins)
	require.NoError(t, err)
	assert.Len(t, h.Edges, MaxHistogramBins+1)
}

func TestJitter(t *testing.T) {
	values := []float64{10, 20, 30, 40}

	a := Jitter(values, 0.5, 7)
	b := Jitter(values, 0.5, 7)
	assert.Equal(t, a, b)
	assert.NotEqual(t, values, a)
	assert.Equal(t, []float64{10, 20, 30, 40}, values)

	assert.Equal(t, values, Jitter(values, 0, 7))
	assert.Equal(t, []float64{3, 3}, Jitter([]float64{3, 3}, 1, 7))
}

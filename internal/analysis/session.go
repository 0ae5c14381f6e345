package analysis

import (
	"sort"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// Headline is one labeled session metric.
type Headline struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// SpinTable is a session's spin statistics pivoted by motion type (rows) and
// spin type (columns), both sorted by name.
type SpinTable struct {
	MotionTypes []string
	SpinTypes   []string
	Counts      [][]int
	// Percent[i][j] is Counts[i][j] as a share of row i. Rows with no shots
	// are all zero.
	Percent [][]float64
}

// Empty reports whether the session had no spin statistics.
func (t SpinTable) Empty() bool {
	return len(t.MotionTypes) == 0
}

// SessionSummary is the session review data for one wrangled session.
type SessionSummary struct {
	Session    domain.Session
	Headlines  []Headline
	TotalShots int
	Strokes    []Bucket
	Spin       SpinTable
}

// SummarizeSession computes the session review data. The session must be
// wrangled so that display speeds and spin stats are populated.
func SummarizeSession(s domain.Session, speedUnit string) SessionSummary {
	return SessionSummary{
		Session: s,
		Headlines: []Headline{
			{Label: "Best PIQ", Value: s.MaxPIQScore},
			{Label: "Best Shot Speed", Value: s.Speeds.Serve, Unit: speedUnit},
			{Label: "Best Rally", Value: float64(s.BestRally)},
			{Label: "Activity Score", Value: s.ActivityLevel},
			{Label: "PIQ Score", Value: s.PIQScore},
			{Label: "Rate", Value: s.Rate, Unit: "shots/min"},
		},
		TotalShots: s.TotalShots,
		Strokes:    strokeBuckets(s.Counts),
		Spin:       PivotSpin(s.Spin),
	}
}

func strokeBuckets(c domain.StrokeCounts) []Bucket {
	counts := []struct {
		label string
		n     int
	}{
		{string(domain.ShotForehand), c.Forehand},
		{string(domain.ShotBackhand), c.Backhand},
		{string(domain.ShotServe), c.Serve},
		{string(domain.ShotVolley), c.Volley},
		{string(domain.ShotSmash), c.Smash},
	}
	var total int
	for _, e := range counts {
		total += e.n
	}
	out := make([]Bucket, len(counts))
	for i, e := range counts {
		out[i] = bucket(e.label, e.n, total)
	}
	return out
}

// PivotSpin sums spin counts per (motion type, spin type) pair.
func PivotSpin(entries []domain.SpinCount) SpinTable {
	if len(entries) == 0 {
		return SpinTable{}
	}

	motionIdx := make(map[string]int)
	spinIdx := make(map[string]int)
	var t SpinTable
	for _, e := range entries {
		if _, ok := motionIdx[e.MotionType]; !ok {
			motionIdx[e.MotionType] = 0
			t.MotionTypes = append(t.MotionTypes, e.MotionType)
		}
		if _, ok := spinIdx[e.SpinType]; !ok {
			spinIdx[e.SpinType] = 0
			t.SpinTypes = append(t.SpinTypes, e.SpinType)
		}
	}
	sort.Strings(t.MotionTypes)
	sort.Strings(t.SpinTypes)
	for i, m := range t.MotionTypes {
		motionIdx[m] = i
	}
	for j, s := range t.SpinTypes {
		spinIdx[s] = j
	}

	t.Counts = make([][]int, len(t.MotionTypes))
	t.Percent = make([][]float64, len(t.MotionTypes))
	for i := range t.Counts {
		t.Counts[i] = make([]int, len(t.SpinTypes))
		t.Percent[i] = make([]float64, len(t.SpinTypes))
	}
	for _, e := range entries {
		t.Counts[motionIdx[e.MotionType]][spinIdx[e.SpinType]] += e.Count
	}
	for i, row := range t.Counts {
		var total int
		for _, n := range row {
			total += n
		}
		if total == 0 {
			continue
		}
		for j, n := range row {
			t.Percent[i][j] = float64(n) / float64(total) * 100
		}
	}
	return t
}

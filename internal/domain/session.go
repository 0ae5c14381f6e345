// Package domain contains core domain types for tennis session analysis.
package domain

import "time"

// DisplayTimeLayout formats session start times for selectors and titles.
const DisplayTimeLayout = "01-02-2006 03:04:05 PM"

// StrokeCounts holds the per-stroke shot counts the sensor stores on a session.
type StrokeCounts struct {
	Forehand int
	Backhand int
	Serve    int
	Volley   int
	Smash    int
}

// PeakSpeeds holds the best speed per stroke for one session.
type PeakSpeeds struct {
	Serve    float64
	Forehand float64
	Backhand float64
}

// SpinCount is one entry of a session's spin statistics.
type SpinCount struct {
	MotionType string `json:"motionType"`
	SpinType   string `json:"spinType"`
	Count      int    `json:"count"`
}

// Session is one continuous play period tracked by the sensor.
type Session struct {
	ID    int64
	Start time.Time
	End   time.Time

	PIQScore      float64 // Average PIQ over the session
	MaxPIQScore   float64
	ActivityLevel float64
	BestRally     int
	Rate          float64 // Shots per minute
	TotalShots    int
	Counts        StrokeCounts

	ForehandAvgScore float64
	BackhandAvgScore float64

	// RawSpeeds are in sensor units (m/s) as stored.
	RawSpeeds PeakSpeeds
	// Speeds are in display units; zero until wrangled.
	Speeds PeakSpeeds

	// SpinJSON is the raw activity_statistics_spin_json column.
	SpinJSON string
	// Spin is the parsed form of SpinJSON; nil until wrangled.
	Spin []SpinCount
}

// Duration returns the length of the session.
func (s Session) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Contains reports whether t falls inside the session window widened by skew
// on both ends. Bounds are inclusive.
func (s Session) Contains(t time.Time, skew time.Duration) bool {
	from := s.Start.Add(-skew)
	to := s.Start.Add(s.Duration()).Add(skew)
	return !t.Before(from) && !t.After(to)
}

// FormattedTime returns the start time in DisplayTimeLayout.
func (s Session) FormattedTime() string {
	return s.Start.Format(DisplayTimeLayout)
}

// Package wrangle normalizes loaded sessions and shots: timezone alignment,
// unit conversion, category validation and session/shot alignment.
//
// Wrangle is pure. It never mutates its inputs and returns the same result
// for the same inputs.
package wrangle

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// Defaults used by DefaultOptions.
const (
	DefaultTimezone    = "America/Phoenix"
	DefaultSpeedFactor = 2.25
	DefaultMinSpeed    = 50.0
)

// Exclusion reasons, used as metric labels and log fields.
const (
	ReasonInvalidTime   = "invalid_time"
	ReasonBelowMinSpeed = "below_min_speed"
	ReasonOrphaned      = "orphaned"
	ReasonOutsideWindow = "outside_window"
)

// Options controls normalization.
type Options struct {
	// Location is the display timezone. Nil means UTC.
	Location *time.Location
	// SpeedFactor converts sensor units to display units.
	SpeedFactor float64
	// MinSpeed is the lowest display speed kept; shots below it are excluded.
	MinSpeed float64
	// SkewTolerance widens each session window on both ends.
	SkewTolerance time.Duration
	// AssignUnlinked attaches shots without a session id to the session whose
	// window contains them. When false such shots are orphans.
	AssignUnlinked bool
}

// DefaultOptions returns the sensor app's conventions. The timezone falls back
// to UTC when the tz database is unavailable.
func DefaultOptions() Options {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Options{
		Location:    loc,
		SpeedFactor: DefaultSpeedFactor,
		MinSpeed:    DefaultMinSpeed,
	}
}

// Excluded counts removed shots per reason. Each shot is counted once, under
// the first check it fails in the order the fields are declared.
type Excluded struct {
	InvalidTime   int
	BelowMinSpeed int
	Orphaned      int
	OutsideWindow int
}

// Total returns the number of excluded shots.
func (e Excluded) Total() int {
	return e.InvalidTime + e.BelowMinSpeed + e.Orphaned + e.OutsideWindow
}

// ByReason returns the counts keyed by reason label.
func (e Excluded) ByReason() map[string]int {
	return map[string]int{
		ReasonInvalidTime:   e.InvalidTime,
		ReasonBelowMinSpeed: e.BelowMinSpeed,
		ReasonOrphaned:      e.Orphaned,
		ReasonOutsideWindow: e.OutsideWindow,
	}
}

// Result is the normalized data set.
type Result struct {
	// Sessions are ordered newest first.
	Sessions []domain.Session
	// Shots are ordered by session id, then time.
	Shots []domain.Shot

	Excluded Excluded
	// ExcludedBySession splits Excluded by the session id stored on each
	// dropped shot. Unlinked shots are under 0.
	ExcludedBySession map[int64]Excluded
	// MalformedSpin counts sessions whose spin JSON could not be parsed.
	MalformedSpin int
	// Relabeled counts shots whose type or spin was not recognized.
	Relabeled int
}

// Wrangle normalizes sessions and shots.
func Wrangle(sessions []domain.Session, shots []domain.Shot, opts Options) Result {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var res Result
	res.Sessions = make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		out, ok := normalizeSession(s, loc, opts.SpeedFactor)
		if !ok {
			res.MalformedSpin++
		}
		res.Sessions = append(res.Sessions, out)
	}
	sort.SliceStable(res.Sessions, func(i, j int) bool {
		a, b := res.Sessions[i], res.Sessions[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.After(b.Start)
		}
		return a.ID > b.ID
	})

	byID := make(map[int64]domain.Session, len(res.Sessions))
	for _, s := range res.Sessions {
		byID[s.ID] = s
	}

	res.ExcludedBySession = make(map[int64]Excluded)
	drop := func(shot domain.Shot, count func(*Excluded)) {
		count(&res.Excluded)
		e := res.ExcludedBySession[shot.SessionID]
		count(&e)
		res.ExcludedBySession[shot.SessionID] = e
	}

	res.Shots = make([]domain.Shot, 0, len(shots))
	for _, shot := range shots {
		if shot.Time.IsZero() {
			drop(shot, func(e *Excluded) { e.InvalidTime++ })
			continue
		}

		shot.Time = Localize(shot.Time, loc)
		shot.Speed = shot.SpeedValue * opts.SpeedFactor
		if shot.Speed < opts.MinSpeed {
			drop(shot, func(e *Excluded) { e.BelowMinSpeed++ })
			continue
		}

		session, ok := byID[shot.SessionID]
		if shot.SessionID == 0 {
			ok = false
			if opts.AssignUnlinked {
				session, ok = findContaining(res.Sessions, shot.Time, opts.SkewTolerance)
			}
		}
		if !ok {
			drop(shot, func(e *Excluded) { e.Orphaned++ })
			continue
		}
		if !session.Contains(shot.Time, opts.SkewTolerance) {
			drop(shot, func(e *Excluded) { e.OutsideWindow++ })
			continue
		}
		shot.SessionID = session.ID

		shot.Type = domain.ClassifyShotType(shot.RawType)
		shot.Spin = domain.ClassifySpin(shot.RawSpin)
		if shot.Type == domain.ShotUnknown || shot.Spin == domain.SpinUnknown {
			res.Relabeled++
		}
		res.Shots = append(res.Shots, shot)
	}
	sort.SliceStable(res.Shots, func(i, j int) bool {
		a, b := res.Shots[i], res.Shots[j]
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		return a.ID < b.ID
	})

	return res
}

// Localize reinterprets the wall clock reading of t in loc.
func Localize(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// normalizeSession converts times and speeds and parses spin stats. It
// reports false when the spin JSON was present but malformed.
func normalizeSession(s domain.Session, loc *time.Location, factor float64) (domain.Session, bool) {
	s.Start = s.Start.In(loc)
	s.End = s.End.In(loc)
	s.Speeds = domain.PeakSpeeds{
		Serve:    s.RawSpeeds.Serve * factor,
		Forehand: s.RawSpeeds.Forehand * factor,
		Backhand: s.RawSpeeds.Backhand * factor,
	}

	spin, err := ParseSpin(s.SpinJSON)
	s.Spin = spin
	return s, err == nil
}

type rawSpinCount struct {
	MotionType string  `json:"motionType"`
	SpinType   string  `json:"spinType"`
	Count      float64 `json:"count"`
}

// ParseSpin parses a session's spin statistics. Empty input yields an empty
// list. Malformed input yields an empty list and the decode error.
func ParseSpin(raw string) ([]domain.SpinCount, error) {
	out := []domain.SpinCount{}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return out, nil
	}

	var entries []rawSpinCount
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return out, err
	}
	for _, e := range entries {
		if e.Count < 0 || math.IsNaN(e.Count) {
			continue
		}
		out = append(out, domain.SpinCount{
			MotionType: e.MotionType,
			SpinType:   e.SpinType,
			Count:      int(math.Round(e.Count)),
		})
	}
	return out, nil
}

// findContaining returns the session whose widened window contains t. When
// windows overlap the latest starting session wins.
func findContaining(newestFirst []domain.Session, t time.Time, skew time.Duration) (domain.Session, bool) {
	for _, s := range newestFirst {
		if s.Contains(t, skew) {
			return s, true
		}
	}
	return domain.Session{}, false
}

package report

import (
	"time"

	"github.com/blue-az/BabAnalysis/internal/analysis"
	"github.com/blue-az/BabAnalysis/internal/chart"
	"github.com/blue-az/BabAnalysis/internal/domain"
)

// SessionItem is one entry of the session selector.
type SessionItem struct {
	ID            int64     `json:"id"`
	FormattedTime string    `json:"formatted_time"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	TotalShots    int       `json:"total_shots"`
}

func newSessionItem(s domain.Session) SessionItem {
	return SessionItem{
		ID:            s.ID,
		FormattedTime: s.FormattedTime(),
		Start:         s.Start,
		End:           s.End,
		TotalShots:    s.TotalShots,
	}
}

// SessionList is the selector view, newest session first.
type SessionList struct {
	RunID    string        `json:"run_id"`
	Sessions []SessionItem `json:"sessions"`
	Empty    bool          `json:"empty"`
	Message  string        `json:"message,omitempty"`
}

// SpinView is a pivoted spin table.
type SpinView struct {
	MotionTypes []string    `json:"motion_types"`
	SpinTypes   []string    `json:"spin_types"`
	Counts      [][]int     `json:"counts"`
	Percent     [][]float64 `json:"percent"`
	Empty       bool        `json:"empty"`
}

func newSpinView(t analysis.SpinTable) SpinView {
	return SpinView{
		MotionTypes: t.MotionTypes,
		SpinTypes:   t.SpinTypes,
		Counts:      t.Counts,
		Percent:     t.Percent,
		Empty:       t.Empty(),
	}
}

// SessionView is the session review of one session.
type SessionView struct {
	RunID      string              `json:"run_id"`
	Session    SessionItem         `json:"session"`
	Headlines  []analysis.Headline `json:"headlines"`
	TotalShots int                 `json:"total_shots"`
	Strokes    []analysis.Bucket   `json:"strokes"`
	Spin       SpinView            `json:"spin"`
	Charts     []chart.Spec        `json:"charts"`
}

// ShotsView is the shot analysis of one session.
type ShotsView struct {
	RunID     string `json:"run_id"`
	SessionID int64  `json:"session_id"`
	Window    int    `json:"window"`
	// TotalShots counts the shots matching the filters.
	TotalShots int `json:"total_shots"`
	// Excluded counts the shots of this session dropped by the wrangler, by
	// reason. Unlinked shots are not counted. Relabeled counts the kept shots
	// of this session with an unrecognized type or spin.
	Excluded  map[string]int     `json:"excluded"`
	Relabeled int                `json:"relabeled"`
	Summary   []analysis.Summary `json:"summary"`
	Charts    []chart.Spec       `json:"charts"`
	Empty     bool               `json:"empty"`
	Message   string             `json:"message,omitempty"`
}

// HistoryView is the historical view across every session.
type HistoryView struct {
	RunID      string           `json:"run_id"`
	Window     int              `json:"window"`
	Overall    analysis.Overall `json:"overall"`
	SpeedRange *analysis.Range  `json:"speed_range,omitempty"`
	Charts     []chart.Spec     `json:"charts"`
	Empty      bool             `json:"empty"`
	Message    string           `json:"message,omitempty"`
}

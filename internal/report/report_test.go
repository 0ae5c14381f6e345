package report

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blue-az/BabAnalysis/internal/analysis"
	"github.com/blue-az/BabAnalysis/internal/chart"
	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/storage"
	"github.com/blue-az/BabAnalysis/internal/storage/sqlite"
)

// Session 1 runs 09:00 to 10:00 Phoenix time (UTC-7, no DST).
var firstStart = time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)

func testSessions() []domain.Session {
	return []domain.Session{
		{
			ID:            1,
			Start:         firstStart,
			End:           firstStart.Add(time.Hour),
			PIQScore:      61.5,
			MaxPIQScore:   88,
			ActivityLevel: 55,
			BestRally:     12,
			Rate:          4,
			TotalShots:    240,
			Counts:        domain.StrokeCounts{Forehand: 120, Backhand: 80, Serve: 30, Volley: 6, Smash: 4},
			RawSpeeds:     domain.PeakSpeeds{Serve: 40, Forehand: 33, Backhand: 28},
			SpinJSON: `[{"motionType":"forehand","spinType":"topspin","count":90},` +
				`{"motionType":"forehand","spinType":"flat","count":10}]`,
		},
		{
			ID:            2,
			Start:         firstStart.Add(48 * time.Hour),
			End:           firstStart.Add(49 * time.Hour),
			PIQScore:      65,
			MaxPIQScore:   90,
			ActivityLevel: 40,
			TotalShots:    10,
			RawSpeeds:     domain.PeakSpeeds{Serve: 42},
		},
	}
}

func testShots() []domain.Shot {
	wall := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	return []domain.Shot{
		{SessionID: 1, Time: wall, RawType: "FOREHAND_FLAT", RawSpin: "FLAT", PIQ: 70, StyleScore: 5, SpeedValue: 30},
		{SessionID: 1, Time: wall.Add(time.Minute), RawType: "BACKHAND_SLICE", RawSpin: "SLICE", PIQ: 50, StyleScore: 3, SpeedValue: 24},
		// 20 × 2.25 = 45, below the minimum
		{SessionID: 1, Time: wall.Add(2 * time.Minute), RawType: "FOREHAND", RawSpin: "TOPSPIN", PIQ: 40, SpeedValue: 20},
		// after the session ended
		{SessionID: 1, Time: wall.Add(2 * time.Hour), RawType: "FOREHAND", RawSpin: "TOPSPIN", PIQ: 60, SpeedValue: 30},
		// inside session 1 but not linked
		{Time: wall.Add(10 * time.Minute), RawType: "FOREHAND", RawSpin: "TOPSPIN", PIQ: 65, StyleScore: 4, SpeedValue: 31},
		{SessionID: 2, Time: wall.Add(48*time.Hour + time.Minute), RawType: "SERVE", RawSpin: "FLAT", PIQ: 80, SpeedValue: 41},
	}
}

func newTestStore(t *testing.T, sessions []domain.Session, shots []domain.Shot) storage.Store {
	dir := t.TempDir()
	ctx := context.Background()
	sessionPath := filepath.Join(dir, "playpop_.db")
	shotPath := filepath.Join(dir, "BabPopExt.db")

	require.NoError(t, sqlite.WriteSessions(ctx, sessionPath, sessions))
	require.NoError(t, sqlite.WriteShots(ctx, shotPath, shots))

	store, err := sqlite.NewFileStore(sessionPath, shotPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestBuilder(t *testing.T, mutate func(*Options)) *Builder {
	opts := DefaultOptions()
	loc, err := time.LoadLocation("America/Phoenix")
	require.NoError(t, err)
	opts.Wrangle.Location = loc
	if mutate != nil {
		mutate(&opts)
	}
	return NewBuilder(newTestStore(t, testSessions(), testShots()), opts, nil)
}

func chartIDs(specs []chart.Spec) []string {
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	return ids
}

type failingStore struct {
	err error
}

func (f failingStore) Sessions(context.Context, storage.Filter) ([]domain.Session, error) {
	return nil, f.err
}

func (f failingStore) Shots(context.Context, storage.Filter) ([]domain.Shot, error) {
	return nil, f.err
}

func (f failingStore) Close() error { return nil }

// Sessions

func TestSessions(t *testing.T) {
	b := newTestBuilder(t, nil)

	list, err := b.Sessions(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(list.RunID)
	assert.NoError(t, err)
	assert.False(t, list.Empty)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, int64(2), list.Sessions[0].ID)
	assert.Equal(t, int64(1), list.Sessions[1].ID)
	assert.Equal(t, "03-01-2024 09:00:00 AM", list.Sessions[1].FormattedTime)
	assert.Equal(t, "America/Phoenix", list.Sessions[1].Start.Location().String())
}

func TestSessionsEmpty(t *testing.T) {
	b := NewBuilder(newTestStore(t, nil, nil), DefaultOptions(), nil)

	list, err := b.Sessions(context.Background())
	require.NoError(t, err)
	assert.True(t, list.Empty)
	assert.Equal(t, chart.MessageNoSessions, list.Message)
	assert.Empty(t, list.Sessions)
}

func TestRunIDsAreUnique(t *testing.T) {
	b := newTestBuilder(t, nil)

	a, err := b.Sessions(context.Background())
	require.NoError(t, err)
	c, err := b.Sessions(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, c.RunID)
}

// Session review

func TestSession(t *testing.T) {
	b := newTestBuilder(t, nil)

	view, err := b.Session(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), view.Session.ID)
	assert.Equal(t, 240, view.TotalShots)
	require.Len(t, view.Headlines, 6)
	assert.Equal(t, "Best Shot Speed", view.Headlines[1].Label)
	assert.InDelta(t, 90.0, view.Headlines[1].Value, 1e-9)
	assert.Equal(t, "mph", view.Headlines[1].Unit)

	assert.False(t, view.Spin.Empty)
	assert.Equal(t, []string{"forehand"}, view.Spin.MotionTypes)
	assert.Equal(t, []string{"flat", "topspin"}, view.Spin.SpinTypes)
	assert.Equal(t, [][]int{{10, 90}}, view.Spin.Counts)
	assert.InDeltaSlice(t, []float64{10, 90}, view.Spin.Percent[0], 1e-9)

	assert.Equal(t, []string{chart.IDStrokeDistribution, chart.IDSpinByStroke}, chartIDs(view.Charts))
}

func TestSessionWithoutSpin(t *testing.T) {
	b := newTestBuilder(t, nil)

	view, err := b.Session(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, view.Spin.Empty)
	assert.True(t, view.Charts[1].Empty)
	assert.Equal(t, chart.MessageNoSpin, view.Charts[1].Message)
}

func TestSessionNotFound(t *testing.T) {
	b := newTestBuilder(t, nil)

	_, err := b.Session(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}

// Shot analysis

func TestShots(t *testing.T) {
	b := newTestBuilder(t, nil)

	view, err := b.Shots(context.Background(), 1, ShotsRequest{})
	require.NoError(t, err)

	assert.False(t, view.Empty)
	assert.Equal(t, int64(1), view.SessionID)
	assert.Equal(t, analysis.DefaultRollingWindow, view.Window)
	assert.Equal(t, 2, view.TotalShots)
	assert.Equal(t, 1, view.Excluded["below_min_speed"])
	assert.Equal(t, 1, view.Excluded["outside_window"])
	assert.Equal(t, 0, view.Excluded["orphaned"])
	assert.Len(t, view.Summary, len(domain.ShotMetrics))

	assert.Equal(t, []string{
		chart.IDShotTypes,
		chart.IDSpinDistribution,
		chart.IDSpeedProgression,
		chart.IDCorrelation,
		chart.IDScatter,
		chart.IDHistogram,
	}, chartIDs(view.Charts))
	for _, spec := range view.Charts {
		assert.False(t, spec.Empty, spec.ID)
	}
}

func TestShotsServeFilterOnGroundstrokes(t *testing.T) {
	b := newTestBuilder(t, nil)

	view, err := b.Shots(context.Background(), 1, ShotsRequest{
		Query: analysis.Query{ShotTypes: []domain.ShotType{domain.ShotServe}},
	})
	require.NoError(t, err)

	assert.True(t, view.Empty)
	assert.Equal(t, chart.MessageNoShots, view.Message)
	assert.Equal(t, 0, view.TotalShots)
	for _, spec := range view.Charts {
		assert.True(t, spec.Empty, spec.ID)
	}
}

func TestShotsAssignUnlinked(t *testing.T) {
	b := newTestBuilder(t, func(o *Options) { o.Wrangle.AssignUnlinked = true })

	view, err := b.Shots(context.Background(), 1, ShotsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalShots)
	assert.Equal(t, 0, view.Excluded["orphaned"])
	assert.Equal(t, 1, view.Excluded["below_min_speed"])
	assert.Equal(t, 1, view.Excluded["outside_window"])
}

func TestShotsExclusionsArePerSession(t *testing.T) {
	loc, err := time.LoadLocation("America/Phoenix")
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Wrangle.Location = loc
	opts.Wrangle.AssignUnlinked = true

	shots := testShots()
	wall := time.Date(2024, 3, 3, 9, 10, 0, 0, time.UTC)
	shots = append(shots,
		// session 2: below the minimum, after its end, and an unknown stroke
		domain.Shot{SessionID: 2, Time: wall, RawType: "SERVE", RawSpin: "FLAT", SpeedValue: 10},
		domain.Shot{SessionID: 2, Time: wall.Add(3 * time.Hour), RawType: "SERVE", RawSpin: "FLAT", SpeedValue: 40},
		domain.Shot{SessionID: 2, Time: wall.Add(time.Minute), RawType: "PADDLE_SWING", RawSpin: "FLAT", SpeedValue: 40},
		// unlinked and outside every session
		domain.Shot{Time: wall.Add(30 * time.Hour), RawType: "FOREHAND", RawSpin: "FLAT", SpeedValue: 40},
	)
	b := NewBuilder(newTestStore(t, testSessions(), shots), opts, nil)

	first, err := b.Shots(context.Background(), 1, ShotsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Excluded["below_min_speed"])
	assert.Equal(t, 1, first.Excluded["outside_window"])
	assert.Equal(t, 0, first.Excluded["orphaned"])
	assert.Zero(t, first.Relabeled)

	second, err := b.Shots(context.Background(), 2, ShotsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Excluded["below_min_speed"])
	assert.Equal(t, 1, second.Excluded["outside_window"])
	assert.Equal(t, 0, second.Excluded["orphaned"])
	assert.Equal(t, 1, second.Relabeled)
}

func TestShotsInvalidRequest(t *testing.T) {
	b := newTestBuilder(t, nil)

	tests := []struct {
		name string
		req  ShotsRequest
	}{
		{"unknown x metric", ShotsRequest{Scatter: chart.ScatterOptions{X: "bogus"}}},
		{"unknown histogram metric", ShotsRequest{HistogramMetric: "bogus"}},
		{"jitter above one", ShotsRequest{Scatter: chart.ScatterOptions{Jitter: 1.5}}},
		{"negative window", ShotsRequest{Query: analysis.Query{Window: -1}}},
		{"negative bins", ShotsRequest{Bins: -3}},
		{"NaN jitter", ShotsRequest{Scatter: chart.ScatterOptions{Jitter: math.NaN()}}},
		{"too many bins", ShotsRequest{Bins: analysis.MaxHistogramBins + 1}},
		{"huge bins", ShotsRequest{Bins: math.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Shots(context.Background(), 1, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, analysis.ErrInvalidQuery), err.Error())
		})
	}
}

func TestShotsSessionNotFound(t *testing.T) {
	b := newTestBuilder(t, nil)

	_, err := b.Shots(context.Background(), 42, ShotsRequest{})
	assert.True(t, IsSessionNotFound(err))
}

// History

func TestHistory(t *testing.T) {
	b := newTestBuilder(t, nil)

	view, err := b.History(context.Background(), HistoryRequest{})
	require.NoError(t, err)

	assert.False(t, view.Empty)
	assert.Equal(t, analysis.DefaultRollingWindow, view.Window)
	assert.Equal(t, 2, view.Overall.Sessions)
	assert.Equal(t, 90.0, view.Overall.BestPIQ)
	require.NotNil(t, view.SpeedRange)
	assert.Equal(t, []string{chart.IDPIQHistory, chart.IDSpeedHistory, chart.IDActivityHistory}, chartIDs(view.Charts))
	assert.True(t, hasMode(view.Charts[0], chart.ModeDashed))
}

func TestHistoryHideTrend(t *testing.T) {
	b := newTestBuilder(t, nil)

	view, err := b.History(context.Background(), HistoryRequest{HideTrend: true})
	require.NoError(t, err)
	for _, spec := range view.Charts {
		assert.False(t, hasMode(spec, chart.ModeDashed), spec.ID)
	}
}

func TestHistoryEmpty(t *testing.T) {
	b := NewBuilder(newTestStore(t, nil, nil), DefaultOptions(), nil)

	view, err := b.History(context.Background(), HistoryRequest{})
	require.NoError(t, err)
	assert.True(t, view.Empty)
	for _, spec := range view.Charts {
		assert.True(t, spec.Empty, spec.ID)
	}
}

func hasMode(spec chart.Spec, mode chart.Mode) bool {
	for _, s := range spec.Series {
		if s.Mode == mode {
			return true
		}
	}
	return false
}

// Errors

func TestStoreErrorsPropagate(t *testing.T) {
	unavailable := storage.ErrDataUnavailable{Source: "playpop_.db", Err: errors.New("disk gone")}
	b := NewBuilder(failingStore{err: unavailable}, DefaultOptions(), nil)
	ctx := context.Background()

	_, err := b.Sessions(ctx)
	assert.True(t, storage.IsDataUnavailable(err))

	_, err = b.Session(ctx, 1)
	assert.True(t, storage.IsDataUnavailable(err))

	_, err = b.Shots(ctx, 1, ShotsRequest{})
	assert.True(t, storage.IsDataUnavailable(err))

	_, err = b.History(ctx, HistoryRequest{})
	assert.True(t, storage.IsDataUnavailable(err))
}

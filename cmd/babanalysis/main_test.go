package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/report"
	"github.com/blue-az/BabAnalysis/internal/storage/sqlite"
)

func writeDatabases(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()
	sessionPath := filepath.Join(dir, "playpop_.db")
	shotPath := filepath.Join(dir, "BabPopExt.db")

	start := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	require.NoError(t, sqlite.WriteSessions(ctx, sessionPath, []domain.Session{
		{ID: 1, Start: start, End: start.Add(time.Hour), MaxPIQScore: 80, TotalShots: 2, RawSpeeds: domain.PeakSpeeds{Serve: 40}},
	}))
	wall := time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)
	require.NoError(t, sqlite.WriteShots(ctx, shotPath, []domain.Shot{
		{SessionID: 1, Time: wall, RawType: "FOREHAND", RawSpin: "TOPSPIN", PIQ: 60, SpeedValue: 30},
		{SessionID: 1, Time: wall.Add(time.Minute), RawType: "BACKHAND", RawSpin: "SLICE", PIQ: 55, SpeedValue: 26},
	}))

	t.Setenv("BAB_CONFIG", "")
	t.Setenv("BAB_SESSION_DB", sessionPath)
	t.Setenv("BAB_SHOT_DB", shotPath)
	t.Setenv("BAB_LOG_LEVEL", "error")
}

func TestRunSessions(t *testing.T) {
	writeDatabases(t)
	var out bytes.Buffer

	require.Equal(t, 0, run([]string{"sessions"}, &out))

	var list report.SessionList
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "03-01-2024 09:00:00 AM", list.Sessions[0].FormattedTime)
}

func TestRunShots(t *testing.T) {
	writeDatabases(t)
	var out bytes.Buffer

	require.Equal(t, 0, run([]string{"shots", "--type", "forehand", "1"}, &out))

	var view report.ShotsView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, 1, view.TotalShots)
	assert.Len(t, view.Charts, 6)
}

func TestRunShotsUnrecognizedType(t *testing.T) {
	writeDatabases(t)
	var out bytes.Buffer

	require.Equal(t, 0, run([]string{"shots", "--type", "lob", "1"}, &out))

	var view report.ShotsView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.True(t, view.Empty)
	assert.Zero(t, view.TotalShots)
}

func TestRunShotsRawType(t *testing.T) {
	writeDatabases(t)
	var out bytes.Buffer

	require.Equal(t, 0, run([]string{"shots", "--raw-type", "backhand", "1"}, &out))

	var view report.ShotsView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, 1, view.TotalShots)
}

func TestRunHistory(t *testing.T) {
	writeDatabases(t)
	var out bytes.Buffer

	require.Equal(t, 0, run([]string{"history", "--no-trend"}, &out))

	var view report.HistoryView
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, 1, view.Overall.Sessions)
}

func TestRunFailures(t *testing.T) {
	writeDatabases(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown session", []string{"session", "99"}},
		{"missing session id", []string{"session"}},
		{"too many bins", []string{"shots", "--bins", "1000", "1"}},
		{"NaN jitter", []string{"shots", "--jitter", "NaN", "1"}},
		{"NaN min speed", []string{"history", "--min-speed", "NaN"}},
		{"unknown command", []string{"bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, 1, run(tt.args, &out))
			assert.Empty(t, out.String())
		})
	}
}

func TestRunMissingDatabase(t *testing.T) {
	t.Setenv("BAB_CONFIG", "")
	t.Setenv("BAB_SESSION_DB", filepath.Join(t.TempDir(), "missing.db"))
	t.Setenv("BAB_LOG_LEVEL", "error")

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"sessions"}, &out))
}

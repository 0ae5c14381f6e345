package seed

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/wrangle"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := Config{Sessions: 3, ShotsPerSession: 40, Seed: 7}

	s1, shots1 := Generate(cfg)
	s2, shots2 := Generate(cfg)
	assert.Equal(t, s1, s2)
	assert.Equal(t, shots1, shots2)

	_, other := Generate(Config{Sessions: 3, ShotsPerSession: 40, Seed: 8})
	assert.NotEqual(t, shots1, other)
}

func TestGenerateShape(t *testing.T) {
	sessions, shots := Generate(Config{Sessions: 4, ShotsPerSession: 25})

	require.Len(t, sessions, 4)
	assert.Len(t, shots, 100)

	for i, s := range sessions {
		assert.Equal(t, int64(i+1), s.ID)
		assert.Equal(t, 25, s.TotalShots)
		assert.True(t, s.End.After(s.Start))

		var spin []domain.SpinCount
		require.NoError(t, json.Unmarshal([]byte(s.SpinJSON), &spin))
		total := 0
		for _, e := range spin {
			total += e.Count
		}
		assert.LessOrEqual(t, total, s.TotalShots)

		counted := s.Counts.Forehand + s.Counts.Backhand + s.Counts.Serve + s.Counts.Volley + s.Counts.Smash
		assert.LessOrEqual(t, counted, s.TotalShots)
	}
	for _, shot := range shots {
		assert.GreaterOrEqual(t, shot.PIQ, 0.0)
		assert.LessOrEqual(t, shot.PIQ, 100.0)
		assert.Greater(t, shot.SpeedValue, 0.0)
	}
}

func TestGeneratedShotsAlignWithSessions(t *testing.T) {
	loc, err := time.LoadLocation("America/Phoenix")
	require.NoError(t, err)

	sessions, shots := Generate(Config{Sessions: 5, ShotsPerSession: 60, Location: loc})

	opts := wrangle.DefaultOptions()
	opts.Location = loc
	opts.MinSpeed = 0
	res := wrangle.Wrangle(sessions, shots, opts)

	assert.Zero(t, res.Excluded.Total())
	assert.Len(t, res.Shots, len(shots))
	assert.Zero(t, res.MalformedSpin)
}

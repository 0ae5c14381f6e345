// Package seed generates deterministic demo sessions and shots in the sensor
// app's shape.
package seed

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// Config controls generation.
type Config struct {
	Sessions        int
	ShotsPerSession int
	Seed            uint64
	// Start is the first session start. Later sessions follow every
	// SessionGap.
	Start      time.Time
	SessionGap time.Duration
	// Location is the wall clock zone shot timestamps are written in.
	Location *time.Location
}

// ApplyDefaults applies default values to zero fields.
func (c *Config) ApplyDefaults() {
	if c.Sessions == 0 {
		c.Sessions = 12
	}
	if c.ShotsPerSession == 0 {
		c.ShotsPerSession = 150
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	}
	if c.SessionGap == 0 {
		c.SessionGap = 72 * time.Hour
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
}

type stroke struct {
	raw    string
	shot   domain.ShotType
	weight float64
	// speed is the mean sensor speed in m/s.
	speed float64
}

var strokes = []stroke{
	{"FOREHAND", domain.ShotForehand, 0.45, 30},
	{"BACKHAND", domain.ShotBackhand, 0.30, 26},
	{"SERVE", domain.ShotServe, 0.15, 38},
	{"VOLLEY", domain.ShotVolley, 0.06, 20},
	{"SMASH", domain.ShotSmash, 0.03, 36},
	{"PADDLE_SWING", domain.ShotUnknown, 0.01, 22},
}

type spinChoice struct {
	raw    string
	spin   domain.SpinType
	weight float64
}

var spins = []spinChoice{
	{"TOPSPIN", domain.SpinTopspin, 0.5},
	{"SLICE", domain.SpinSlice, 0.25},
	{"FLAT", domain.SpinFlat, 0.25},
}

// Generate returns sessions and their shots. The same Config always yields
// the same data. Shot times are wall clock readings in cfg.Location carried
// in UTC, as the sensor stores them.
func Generate(cfg Config) ([]domain.Session, []domain.Shot) {
	cfg.ApplyDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))

	sessions := make([]domain.Session, 0, cfg.Sessions)
	var shots []domain.Shot
	var nextShotID int64 = 1

	for i := 0; i < cfg.Sessions; i++ {
		start := cfg.Start.Add(time.Duration(i) * cfg.SessionGap)
		duration := time.Duration(45+rng.IntN(60)) * time.Minute
		// Players improve a little each session.
		skill := float64(i) / float64(max(cfg.Sessions-1, 1))

		s := domain.Session{
			ID:    int64(i + 1),
			Start: start,
			End:   start.Add(duration),
		}

		var (
			piqSum   float64
			fhSum    float64
			bhSum    float64
			spinKeys = map[[2]string]int{}
		)
		offsets := make([]time.Duration, cfg.ShotsPerSession)
		for j := range offsets {
			offsets[j] = time.Duration(rng.Int64N(int64(duration)))
		}
		sort.Slice(offsets, func(a, b int) bool { return offsets[a] < offsets[b] })

		for _, off := range offsets {
			st := pickStroke(rng)
			sp := pickSpin(rng)
			if st.shot == domain.ShotServe {
				sp = spins[2]
			}

			speed := math.Max(5, st.speed*(0.85+0.15*skill)+rng.NormFloat64()*4)
			piq := clamp(45+25*skill+rng.NormFloat64()*12, 0, 100)
			shot := domain.Shot{
				ID:          nextShotID,
				SessionID:   s.ID,
				Time:        wallClock(start.Add(off), cfg.Location),
				RawType:     st.raw,
				RawSpin:     sp.raw,
				PIQ:         math.Round(piq),
				StyleScore:  round1(clamp(piq/10+rng.NormFloat64(), 0, 10)),
				StyleValue:  round1(rng.Float64() * 100),
				EffectScore: round1(clamp(piq/10+rng.NormFloat64()*1.5, 0, 10)),
				EffectValue: round1(rng.Float64() * 3000),
				SpeedScore:  round1(clamp(speed/4, 0, 10)),
				SpeedValue:  round1(speed),
			}
			nextShotID++
			shots = append(shots, shot)

			piqSum += shot.PIQ
			s.MaxPIQScore = math.Max(s.MaxPIQScore, shot.PIQ)
			switch st.shot {
			case domain.ShotForehand:
				s.Counts.Forehand++
				fhSum += shot.PIQ
				s.RawSpeeds.Forehand = math.Max(s.RawSpeeds.Forehand, shot.SpeedValue)
			case domain.ShotBackhand:
				s.Counts.Backhand++
				bhSum += shot.PIQ
				s.RawSpeeds.Backhand = math.Max(s.RawSpeeds.Backhand, shot.SpeedValue)
			case domain.ShotServe:
				s.Counts.Serve++
				s.RawSpeeds.Serve = math.Max(s.RawSpeeds.Serve, shot.SpeedValue)
			case domain.ShotVolley:
				s.Counts.Volley++
			case domain.ShotSmash:
				s.Counts.Smash++
			}
			if st.shot != domain.ShotUnknown {
				spinKeys[[2]string{string(st.shot), string(sp.spin)}]++
			}
		}

		n := cfg.ShotsPerSession
		s.TotalShots = n
		if n > 0 {
			s.PIQScore = round1(piqSum / float64(n))
		}
		if s.Counts.Forehand > 0 {
			s.ForehandAvgScore = round1(fhSum / float64(s.Counts.Forehand))
		}
		if s.Counts.Backhand > 0 {
			s.BackhandAvgScore = round1(bhSum / float64(s.Counts.Backhand))
		}
		s.Rate = round1(float64(n) / duration.Minutes())
		s.ActivityLevel = round1(clamp(s.Rate*12+rng.NormFloat64()*5, 0, 100))
		s.BestRally = 3 + rng.IntN(10+int(10*skill))
		s.SpinJSON = spinJSON(spinKeys)

		sessions = append(sessions, s)
	}
	return sessions, shots
}

func pickStroke(rng *rand.Rand) stroke {
	r := rng.Float64()
	for _, s := range strokes {
		if r < s.weight {
			return s
		}
		r -= s.weight
	}
	return strokes[0]
}

func pickSpin(rng *rand.Rand) spinChoice {
	r := rng.Float64()
	for _, s := range spins {
		if r < s.weight {
			return s
		}
		r -= s.weight
	}
	return spins[0]
}

// wallClock returns the wall clock reading of t in loc, carried in UTC.
func wallClock(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), time.UTC)
}

func spinJSON(counts map[[2]string]int) string {
	entries := make([]domain.SpinCount, 0, len(counts))
	for k, n := range counts {
		entries = append(entries, domain.SpinCount{MotionType: k[0], SpinType: k[1], Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MotionType != entries[j].MotionType {
			return entries[i].MotionType < entries[j].MotionType
		}
		return entries[i].SpinType < entries[j].SpinType
	})
	data, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return string(data)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

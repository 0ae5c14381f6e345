package domain

import "time"

// Metric names a numeric shot column.
type Metric string

const (
	MetricPIQ         Metric = "piq"
	MetricStyleScore  Metric = "style_score"
	MetricStyleValue  Metric = "style_value"
	MetricEffectScore Metric = "effect_score"
	MetricEffectValue Metric = "effect_value"
	MetricSpeedScore  Metric = "speed_score"
	MetricSpeedValue  Metric = "speed_value"
	// MetricSpeed is the speed in display units, derived from MetricSpeedValue.
	MetricSpeed Metric = "speed"
)

// ShotMetrics lists the numeric shot columns in display order.
var ShotMetrics = []Metric{
	MetricPIQ,
	MetricStyleScore,
	MetricStyleValue,
	MetricEffectScore,
	MetricEffectValue,
	MetricSpeedScore,
	MetricSpeedValue,
	MetricSpeed,
}

// ParseMetric parses a metric name.
func ParseMetric(s string) (Metric, bool) {
	for _, m := range ShotMetrics {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Shot is one detected swing within a session.
type Shot struct {
	ID        int64
	SessionID int64 // 0 when the sensor did not link the shot to a session

	// Time is a wall clock reading. As loaded it carries no meaningful
	// location; after wrangling it is localized to the session timezone.
	Time time.Time

	RawType string
	RawSpin string
	Type    ShotType // Set by the wrangler
	Spin    SpinType // Set by the wrangler

	PIQ         float64
	StyleScore  float64
	StyleValue  float64
	EffectScore float64
	EffectValue float64
	SpeedScore  float64
	SpeedValue  float64 // Sensor units (m/s)

	// Speed is SpeedValue in display units; zero until wrangled.
	Speed float64
}

// Value returns the value of the given metric, or 0 for unknown metrics.
func (s Shot) Value(m Metric) float64 {
	switch m {
	case MetricPIQ:
		return s.PIQ
	case MetricStyleScore:
		return s.StyleScore
	case MetricStyleValue:
		return s.StyleValue
	case MetricEffectScore:
		return s.EffectScore
	case MetricEffectValue:
		return s.EffectValue
	case MetricSpeedScore:
		return s.SpeedScore
	case MetricSpeedValue:
		return s.SpeedValue
	case MetricSpeed:
		return s.Speed
	}
	return 0
}

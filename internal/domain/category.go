package domain

import "strings"

// ShotType is the validated stroke category of a shot.
type ShotType string

const (
	ShotForehand ShotType = "forehand"
	ShotBackhand ShotType = "backhand"
	ShotServe    ShotType = "serve"
	ShotSmash    ShotType = "smash"
	ShotVolley   ShotType = "volley"
	ShotUnknown  ShotType = "unknown"
)

// ShotTypes lists the known shot types in display order. ShotUnknown is last.
var ShotTypes = []ShotType{ShotForehand, ShotBackhand, ShotServe, ShotSmash, ShotVolley, ShotUnknown}

// SpinType is the validated spin category of a shot.
type SpinType string

const (
	SpinTopspin SpinType = "topspin"
	SpinSlice   SpinType = "slice"
	SpinFlat    SpinType = "flat"
	SpinUnknown SpinType = "unknown"
)

// SpinTypes lists the known spin types in display order. SpinUnknown is last.
var SpinTypes = []SpinType{SpinTopspin, SpinSlice, SpinFlat, SpinUnknown}

// shotTypeKeywords is checked in order, so "serve" wins over any stroke side
// that also appears in the raw label.
var shotTypeKeywords = []struct {
	keyword string
	shot    ShotType
}{
	{"serve", ShotServe},
	{"smash", ShotSmash},
	{"volley", ShotVolley},
	{"forehand", ShotForehand},
	{"backhand", ShotBackhand},
}

// spinAliases maps sensor spin labels to spin types.
var spinAliases = map[string]SpinType{
	"topspin":  SpinTopspin,
	"top":      SpinTopspin,
	"top_spin": SpinTopspin,
	"lift":     SpinTopspin,
	"slice":    SpinSlice,
	"backspin": SpinSlice,
	"cut":      SpinSlice,
	"flat":     SpinFlat,
}

// ClassifyShotType maps a raw sensor shot label such as "FOREHAND_FLAT" to a
// shot type. Labels that match no known stroke return ShotUnknown.
func ClassifyShotType(raw string) ShotType {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return ShotUnknown
	}
	for _, k := range shotTypeKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.shot
		}
	}
	return ShotUnknown
}

// ClassifySpin maps a raw sensor spin label to a spin type.
func ClassifySpin(raw string) SpinType {
	lower := strings.ToLower(strings.TrimSpace(raw))
	lower = strings.ReplaceAll(lower, " ", "_")
	if spin, ok := spinAliases[lower]; ok {
		return spin
	}
	return SpinUnknown
}

// ParseShotType parses a user supplied shot type filter value.
func ParseShotType(s string) (ShotType, bool) {
	t := ShotType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ShotTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// ParseSpinType parses a user supplied spin type filter value.
func ParseSpinType(s string) (SpinType, bool) {
	t := SpinType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SpinTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

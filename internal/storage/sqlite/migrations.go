package sqlite

// Table names used by the sensor app.
const (
	sessionTable = "tb_activities"
	shotTable    = "motions"
)

// sessionColumns are the columns read from the session table, in scan order.
var sessionColumns = []string{
	"_id",
	"start_time",
	"end_time",
	"piq_score",
	"max_piq_score",
	"activity_level",
	"best_rally",
	"rate",
	"total_shot_count",
	"forehand_count",
	"backhand_count",
	"serves_count",
	"volley_count",
	"smash_count",
	"forehand_avg_score",
	"backhand_avg_score",
	"max_serve_speed",
	"max_forehand_speed",
	"max_backhand_speed",
	"activity_statistics_spin_json",
}

// shotColumns are the columns read from the shot table, in scan order.
var shotColumns = []string{
	"_id",
	"session_id",
	"time",
	"type",
	"spin",
	"piq",
	"style_score",
	"style_value",
	"effect_score",
	"effect_value",
	"speed_score",
	"speed_value",
}

// sessionSchema mirrors the session table written by the sensor app. It is
// only used to build fixture databases.
const sessionSchema = `
CREATE TABLE IF NOT EXISTS tb_activities (
    _id INTEGER PRIMARY KEY,
    start_time INTEGER NOT NULL,     -- epoch milliseconds, UTC
    end_time INTEGER NOT NULL,       -- epoch milliseconds, UTC
    piq_score REAL,
    max_piq_score REAL,
    activity_level REAL,
    best_rally INTEGER,
    rate REAL,
    total_shot_count INTEGER,
    forehand_count INTEGER,
    backhand_count INTEGER,
    serves_count INTEGER,
    volley_count INTEGER,
    smash_count INTEGER,
    forehand_avg_score REAL,
    backhand_avg_score REAL,
    max_serve_speed REAL,            -- m/s
    max_forehand_speed REAL,         -- m/s
    max_backhand_speed REAL,         -- m/s
    activity_statistics_spin_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_activities_start ON tb_activities(start_time);
`

// shotSchema mirrors the per-shot table. Fixture use only.
const shotSchema = `
CREATE TABLE IF NOT EXISTS motions (
    _id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER,
    time TEXT NOT NULL,              -- local wall clock, no zone
    type TEXT,
    spin TEXT,
    piq REAL,
    style_score REAL,
    style_value REAL,
    effect_score REAL,
    effect_value REAL,
    speed_score REAL,
    speed_value REAL                 -- m/s
);
CREATE INDEX IF NOT EXISTS idx_motions_session_time ON motions(session_id, time);
`

// Package sqlite provides a read-only SQLite implementation of storage.Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/storage"

	_ "modernc.org/sqlite"
)

// wallClockLayouts are tried in order when parsing shot timestamps.
var wallClockLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

// Store is a SQLite implementation of storage.Store.
type Store struct {
	sessions    *sql.DB
	shots       *sql.DB
	sessionPath string
	shotPath    string
}

// NewFileStore opens the session and shot databases read-only. Both paths may
// point at the same file.
func NewFileStore(sessionPath, shotPath string) (*Store, error) {
	sessions, err := openReadOnly(sessionPath)
	if err != nil {
		return nil, err
	}

	store := &Store{
		sessions:    sessions,
		shots:       sessions,
		sessionPath: sessionPath,
		shotPath:    shotPath,
	}
	if shotPath != sessionPath {
		shots, err := openReadOnly(shotPath)
		if err != nil {
			sessions.Close()
			return nil, err
		}
		store.shots = shots
	}
	return store, nil
}

func openReadOnly(path string) (*sql.DB, error) {
	// sql.Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, storage.ErrDataUnavailable{Source: path, Err: err}
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, storage.ErrDataUnavailable{Source: path, Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storage.ErrDataUnavailable{Source: path, Err: err}
	}
	return db, nil
}

var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// readOnlyDSN opens path as a read-only URI. The driver applies _pragma to
// every connection it creates, so pooled connections stay query-only too.
func readOnlyDSN(path string) string {
	return "file:" + uriPathEscaper.Replace(path) + "?mode=ro&_pragma=query_only(1)"
}

// Close closes the database connections.
func (s *Store) Close() error {
	err := s.sessions.Close()
	if s.shots != s.sessions {
		if shotErr := s.shots.Close(); err == nil {
			err = shotErr
		}
	}
	return err
}

// checkColumns verifies that table exists and has every required column.
func checkColumns(ctx context.Context, db *sql.DB, source, table string, required []string) error {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return storage.ErrDataUnavailable{Source: source, Err: err}
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return storage.ErrDataUnavailable{Source: source, Err: err}
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return storage.ErrDataUnavailable{Source: source, Err: err}
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return storage.ErrSchemaMismatch{Table: table, Missing: missing}
	}
	return nil
}

// Session methods

func (s *Store) Sessions(ctx context.Context, filter storage.Filter) ([]domain.Session, error) {
	if err := checkColumns(ctx, s.sessions, s.sessionPath, sessionTable, sessionColumns); err != nil {
		return nil, err
	}

	query := `
		SELECT _id, COALESCE(start_time, 0), COALESCE(end_time, 0),
		       COALESCE(piq_score, 0), COALESCE(max_piq_score, 0), COALESCE(activity_level, 0),
		       COALESCE(best_rally, 0), COALESCE(rate, 0), COALESCE(total_shot_count, 0),
		       COALESCE(forehand_count, 0), COALESCE(backhand_count, 0), COALESCE(serves_count, 0),
		       COALESCE(volley_count, 0), COALESCE(smash_count, 0),
		       COALESCE(forehand_avg_score, 0), COALESCE(backhand_avg_score, 0),
		       COALESCE(max_serve_speed, 0), COALESCE(max_forehand_speed, 0), COALESCE(max_backhand_speed, 0),
		       COALESCE(activity_statistics_spin_json, '')
		FROM tb_activities`
	var args []any
	if filter.SessionID != 0 {
		query += " WHERE _id = ?"
		args = append(args, filter.SessionID)
	}
	query += " ORDER BY start_time DESC"

	rows, err := s.sessions.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.ErrDataUnavailable{Source: s.sessionPath, Err: err}
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var (
			sess                                        domain.Session
			start, end                                  float64
			rally, total, fh, bh, serves, volley, smash float64
		)
		if err := rows.Scan(
			&sess.ID, &start, &end,
			&sess.PIQScore, &sess.MaxPIQScore, &sess.ActivityLevel,
			&rally, &sess.Rate, &total,
			&fh, &bh, &serves, &volley, &smash,
			&sess.ForehandAvgScore, &sess.BackhandAvgScore,
			&sess.RawSpeeds.Serve, &sess.RawSpeeds.Forehand, &sess.RawSpeeds.Backhand,
			&sess.SpinJSON,
		); err != nil {
			return nil, storage.ErrDataUnavailable{Source: s.sessionPath, Err: fmt.Errorf("scan session: %w", err)}
		}
		sess.Start = fromEpochMillis(start)
		sess.End = fromEpochMillis(end)
		sess.BestRally = int(rally)
		sess.TotalShots = int(total)
		sess.Counts = domain.StrokeCounts{
			Forehand: int(fh),
			Backhand: int(bh),
			Serve:    int(serves),
			Volley:   int(volley),
			Smash:    int(smash),
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.ErrDataUnavailable{Source: s.sessionPath, Err: err}
	}
	return sessions, nil
}

// Shot methods

func (s *Store) Shots(ctx context.Context, filter storage.Filter) ([]domain.Shot, error) {
	if err := checkColumns(ctx, s.shots, s.shotPath, shotTable, shotColumns); err != nil {
		return nil, err
	}

	query := `
		SELECT _id, COALESCE(session_id, 0), COALESCE(time, ''),
		       COALESCE(type, ''), COALESCE(spin, ''),
		       COALESCE(piq, 0), COALESCE(style_score, 0), COALESCE(style_value, 0),
		       COALESCE(effect_score, 0), COALESCE(effect_value, 0),
		       COALESCE(speed_score, 0), COALESCE(speed_value, 0)
		FROM motions`
	var args []any
	if filter.SessionID != 0 {
		query += " WHERE session_id = ?"
		args = append(args, filter.SessionID)
	}
	query += " ORDER BY time ASC, _id ASC"

	rows, err := s.shots.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.ErrDataUnavailable{Source: s.shotPath, Err: err}
	}
	defer rows.Close()

	var shots []domain.Shot
	for rows.Next() {
		var (
			shot domain.Shot
			ts   string
		)
		if err := rows.Scan(
			&shot.ID, &shot.SessionID, &ts,
			&shot.RawType, &shot.RawSpin,
			&shot.PIQ, &shot.StyleScore, &shot.StyleValue,
			&shot.EffectScore, &shot.EffectValue,
			&shot.SpeedScore, &shot.SpeedValue,
		); err != nil {
			return nil, storage.ErrDataUnavailable{Source: s.shotPath, Err: fmt.Errorf("scan shot: %w", err)}
		}
		// Unparseable timestamps stay zero; the wrangler drops them.
		shot.Time, _ = ParseWallClock(ts)
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.ErrDataUnavailable{Source: s.shotPath, Err: err}
	}
	return shots, nil
}

// ParseWallClock parses a zone-less timestamp. Any zone offset in the input
// is discarded and the wall clock reading is returned in UTC.
func ParseWallClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range wallClockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func fromEpochMillis(ms float64) time.Time {
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)

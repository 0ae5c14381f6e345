package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// FixtureTimeLayout is the wall clock layout written to the shot table.
const FixtureTimeLayout = "2006-01-02 15:04:05.000"

// WriteSessions creates (or extends) a session database at path in the
// sensor app's schema and inserts sessions. Speeds are taken from RawSpeeds.
func WriteSessions(ctx context.Context, path string, sessions []domain.Session) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sessionSchema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO tb_activities (
			_id, start_time, end_time, piq_score, max_piq_score, activity_level,
			best_rally, rate, total_shot_count,
			forehand_count, backhand_count, serves_count, volley_count, smash_count,
			forehand_avg_score, backhand_avg_score,
			max_serve_speed, max_forehand_speed, max_backhand_speed,
			activity_statistics_spin_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.ExecContext(ctx,
			s.ID, s.Start.UnixMilli(), s.End.UnixMilli(),
			s.PIQScore, s.MaxPIQScore, s.ActivityLevel,
			s.BestRally, s.Rate, s.TotalShots,
			s.Counts.Forehand, s.Counts.Backhand, s.Counts.Serve, s.Counts.Volley, s.Counts.Smash,
			s.ForehandAvgScore, s.BackhandAvgScore,
			s.RawSpeeds.Serve, s.RawSpeeds.Forehand, s.RawSpeeds.Backhand,
			s.SpinJSON,
		); err != nil {
			return fmt.Errorf("failed to insert session %d: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// WriteShots creates (or extends) a shot database at path and inserts shots.
// Shot times are written as wall clock text in their own location.
func WriteShots(ctx context.Context, path string, shots []domain.Shot) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, shotSchema); err != nil {
		return fmt.Errorf("failed to create shot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO motions (
			session_id, time, type, spin, piq,
			style_score, style_value, effect_score, effect_value,
			speed_score, speed_value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range shots {
		var sessionID any
		if s.SessionID != 0 {
			sessionID = s.SessionID
		}
		if _, err := stmt.ExecContext(ctx,
			sessionID, s.Time.Format(FixtureTimeLayout), s.RawType, s.RawSpin, s.PIQ,
			s.StyleScore, s.StyleValue, s.EffectScore, s.EffectValue,
			s.SpeedScore, s.SpeedValue,
		); err != nil {
			return fmt.Errorf("failed to insert shot: %w", err)
		}
	}

	return tx.Commit()
}

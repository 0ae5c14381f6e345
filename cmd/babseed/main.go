// Package main writes deterministic demo sensor databases.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"

	"github.com/blue-az/BabAnalysis/internal/logger"
	"github.com/blue-az/BabAnalysis/internal/seed"
	"github.com/blue-az/BabAnalysis/internal/storage/sqlite"
	"github.com/blue-az/BabAnalysis/internal/wrangle"
)

type options struct {
	SessionDB string `long:"session-db" description:"Session database path" default:"./playpop_.db"`
	ShotDB    string `long:"shot-db" description:"Shot database path" default:"./BabPopExt.db"`
	Sessions  int    `short:"n" long:"sessions" description:"Number of sessions" default:"12"`
	Shots     int    `long:"shots" description:"Shots per session" default:"150"`
	Seed      uint64 `long:"seed" description:"Random seed" default:"1"`
	Start     string `long:"start" description:"First session start (RFC 3339)" default:"2024-03-01T09:00:00-07:00"`
	Timezone  string `long:"timezone" description:"Wall clock zone of shot timestamps" default:"America/Phoenix"`
	Overwrite bool   `long:"overwrite" description:"Replace existing database files"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if err := logger.Init(logger.FormatText); err != nil {
		return err
	}
	log := logger.Named("babseed")

	if opts.Sessions < 1 || opts.Shots < 1 {
		return errors.New("sessions and shots must be positive")
	}
	start, err := time.Parse(time.RFC3339, opts.Start)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	for _, path := range []string{opts.SessionDB, opts.ShotDB} {
		if _, err := os.Stat(path); err == nil {
			if !opts.Overwrite {
				return fmt.Errorf("%s exists; pass --overwrite to replace it", path)
			}
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	sessions, shots := seed.Generate(seed.Config{
		Sessions:        opts.Sessions,
		ShotsPerSession: opts.Shots,
		Seed:            opts.Seed,
		Start:           start.UTC(),
		Location:        loc,
	})

	if err := sqlite.WriteSessions(ctx, opts.SessionDB, sessions); err != nil {
		return err
	}
	if err := sqlite.WriteShots(ctx, opts.ShotDB, shots); err != nil {
		return err
	}

	// Summarize what the analyzer will keep at the default minimum speed.
	wopts := wrangle.DefaultOptions()
	wopts.Location = loc
	res := wrangle.Wrangle(sessions, shots, wopts)

	log.Info(ctx, "wrote demo databases",
		logger.String("session_db", opts.SessionDB),
		logger.String("shot_db", opts.ShotDB),
		logger.Int("sessions", len(sessions)),
		logger.Int("shots", len(shots)),
		logger.Int("kept", len(res.Shots)),
		logger.Int("excluded", res.Excluded.Total()))
	return nil
}

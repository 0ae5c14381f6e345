// Package main is the entry point for the tennis session analysis tool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"

	"github.com/blue-az/BabAnalysis/internal/api"
	"github.com/blue-az/BabAnalysis/internal/chart"
	"github.com/blue-az/BabAnalysis/internal/config"
	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/logger"
	"github.com/blue-az/BabAnalysis/internal/metrics"
	"github.com/blue-az/BabAnalysis/internal/report"
	"github.com/blue-az/BabAnalysis/internal/storage"
	"github.com/blue-az/BabAnalysis/internal/storage/cache"
	"github.com/blue-az/BabAnalysis/internal/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// app holds the state shared by every command.
type app struct {
	Config string `short:"c" long:"config" description:"YAML config file (defaults to $BAB_CONFIG)"`

	out io.Writer
}

func run(args []string, out io.Writer) int {
	a := &app{out: out}
	parser := flags.NewParser(a, flags.Default)
	parser.Name = "babanalysis"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"sessions", "List sessions", "List every session, newest first.", &sessionsCommand{app: a}},
		{"session", "Review one session", "Headline metrics, stroke counts and spin table of one session.", &sessionCommand{app: a}},
		{"shots", "Analyze the shots of one session", "Distributions, speed progression, correlations and summary statistics.", &shotsCommand{app: a}},
		{"history", "Trends across sessions", "PIQ, speed and activity trends across every session.", &historyCommand{app: a}},
		{"serve", "Serve the JSON feed", "Serve every view over HTTP.", &serveCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}
	return 0
}

// setup loads configuration, initializes logging and opens the store.
func (a *app) setup(ctx context.Context) (*config.Config, *report.Builder, storage.Store, error) {
	cfg, err := config.Load(ctx, a.Config)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := logger.Init(cfg.LogFormat); err != nil {
		return nil, nil, nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, nil, nil, err
	}
	log := logger.Get()
	metrics.Configure(cfg.MetricsOptions()...)

	wopts, err := cfg.WrangleOptions()
	if err != nil {
		return nil, nil, nil, err
	}
	palette, err := cfg.ChartPalette()
	if err != nil {
		return nil, nil, nil, err
	}
	copts := chart.DefaultOptions()
	copts.Palette = palette

	var store storage.Store
	store, err = sqlite.NewFileStore(cfg.SessionDB, cfg.ShotDB)
	if err != nil {
		log.Error(ctx, "failed to open sensor databases",
			logger.String("session_db", cfg.SessionDB),
			logger.String("shot_db", cfg.ShotDB),
			logger.Error(err))
		return nil, nil, nil, err
	}
	if cfg.CacheSize > 0 {
		cached, err := cache.New(store, cfg.CacheSize)
		if err != nil {
			_ = store.Close()
			return nil, nil, nil, err
		}
		store = cached
	}

	builder := report.NewBuilder(store, report.Options{
		Wrangle:   wopts,
		Analysis:  cfg.AnalysisOptions(),
		Chart:     copts,
		SpeedUnit: cfg.SpeedUnit,
	}, log)
	return cfg, builder, store, nil
}

// runView runs one report and prints it as indented JSON.
func (a *app) runView(view func(ctx context.Context, b *report.Builder) (any, error)) error {
	ctx := context.Background()
	_, builder, store, err := a.setup(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := view(ctx, builder)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type sessionsCommand struct {
	app *app
}

func (c *sessionsCommand) Execute([]string) error {
	return c.app.runView(func(ctx context.Context, b *report.Builder) (any, error) {
		return b.Sessions(ctx)
	})
}

type sessionArgs struct {
	ID int64 `positional-arg-name:"id" description:"Session id"`
}

type sessionCommand struct {
	Args sessionArgs `positional-args:"yes" required:"yes"`

	app *app
}

func (c *sessionCommand) Execute([]string) error {
	return c.app.runView(func(ctx context.Context, b *report.Builder) (any, error) {
		return b.Session(ctx, c.Args.ID)
	})
}

type shotsCommand struct {
	Types  []string    `short:"t" long:"type" description:"Shot type filter (repeatable)"`
	Spins  []string    `short:"s" long:"spin" description:"Spin filter (repeatable)"`
	Raw    []string    `long:"raw-type" description:"Sensor stroke label filter (repeatable)"`
	Window int         `short:"w" long:"window" description:"Rolling average window in shots"`
	X      string      `long:"x" description:"Scatter x metric" default:"piq"`
	Y      string      `long:"y" description:"Scatter y metric" default:"style_score"`
	Jitter float64     `long:"jitter" description:"Scatter jitter amount in [0, 1]"`
	Metric string      `long:"metric" description:"Histogram metric" default:"piq"`
	Bins   int         `long:"bins" description:"Histogram bin count" default:"20"`
	Seed   uint64      `long:"seed" description:"Jitter seed" default:"1"`
	Args   sessionArgs `positional-args:"yes" required:"yes"`

	app *app
}

func (c *shotsCommand) Execute([]string) error {
	req := report.ShotsRequest{
		Scatter:         chart.ScatterOptions{X: domain.Metric(c.X), Y: domain.Metric(c.Y), Jitter: c.Jitter, Seed: c.Seed},
		HistogramMetric: domain.Metric(c.Metric),
		Bins:            c.Bins,
	}
	req.Query.Window = c.Window
	req.Query.RawTypes = c.Raw
	for _, t := range c.Types {
		req.Query.ShotTypes = append(req.Query.ShotTypes, domain.ShotType(t))
	}
	for _, s := range c.Spins {
		req.Query.Spins = append(req.Query.Spins, domain.SpinType(s))
	}
	return c.app.runView(func(ctx context.Context, b *report.Builder) (any, error) {
		return b.Shots(ctx, c.Args.ID, req)
	})
}

type historyCommand struct {
	Window    int     `short:"w" long:"window" description:"Rolling average window in sessions"`
	Forehand  bool    `long:"forehand" description:"Add forehand series"`
	Backhand  bool    `long:"backhand" description:"Add backhand series"`
	MinSpeed  float64 `long:"min-speed" description:"Drop speed points below this value"`
	NoTrend   bool    `long:"no-trend" description:"Omit trend lines"`
	NoRolling bool    `long:"no-rolling" description:"Omit rolling averages"`

	app *app
}

func (c *historyCommand) Execute([]string) error {
	req := report.HistoryRequest{HideTrend: c.NoTrend, HideRolling: c.NoRolling}
	req.Window = c.Window
	req.ShowForehand = c.Forehand
	req.ShowBackhand = c.Backhand
	req.MinSpeed = c.MinSpeed
	return c.app.runView(func(ctx context.Context, b *report.Builder) (any, error) {
		return b.History(ctx, req)
	})
}

type serveCommand struct {
	Addr string `short:"a" long:"addr" description:"Listen address (overrides config)"`

	app *app
}

func (c *serveCommand) Execute([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, builder, store, err := c.app.setup(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	addr := cfg.Addr
	if c.Addr != "" {
		addr = c.Addr
	}
	log := logger.Named("serve")
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(builder, logger.Get()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

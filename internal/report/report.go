// Package report runs the load, wrangle, analyze and chart pipeline for each
// dashboard view. Every call is independent; the only shared state is the
// store, which may be cached.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blue-az/BabAnalysis/internal/analysis"
	"github.com/blue-az/BabAnalysis/internal/chart"
	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/logger"
	"github.com/blue-az/BabAnalysis/internal/metrics"
	"github.com/blue-az/BabAnalysis/internal/storage"
	"github.com/blue-az/BabAnalysis/internal/wrangle"
)

// Defaults for shot views.
const (
	DefaultHistogramBins   = 20
	DefaultHistogramMetric = domain.MetricPIQ
	DefaultSpeedUnit       = "mph"
)

// Options configures a Builder.
type Options struct {
	Wrangle   wrangle.Options
	Analysis  analysis.Options
	Chart     chart.Options
	SpeedUnit string
}

// DefaultOptions returns the built-in defaults of every stage.
func DefaultOptions() Options {
	return Options{
		Wrangle:   wrangle.DefaultOptions(),
		Analysis:  analysis.DefaultOptions(),
		Chart:     chart.DefaultOptions(),
		SpeedUnit: DefaultSpeedUnit,
	}
}

// ShotsRequest selects the shot analysis of one session.
type ShotsRequest struct {
	Query   analysis.Query
	Scatter chart.ScatterOptions
	// HistogramMetric defaults to piq.
	HistogramMetric domain.Metric
	// Bins defaults to DefaultHistogramBins.
	Bins int
}

// HistoryRequest selects the historical view.
type HistoryRequest struct {
	analysis.HistoryOptions
	HideTrend   bool
	HideRolling bool
}

// Builder builds dashboard views from a store.
type Builder struct {
	store storage.Store
	opts  Options
	log   logger.Logger
}

// NewBuilder creates a Builder. A nil log discards output.
func NewBuilder(store storage.Store, opts Options, log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	opts.Chart.ApplyDefaults()
	if opts.SpeedUnit == "" {
		opts.SpeedUnit = DefaultSpeedUnit
	}
	return &Builder{store: store, opts: opts, log: log.Named("report")}
}

// Sessions lists the wrangled sessions, newest first.
func (b *Builder) Sessions(ctx context.Context) (SessionList, error) {
	r := b.newRun("sessions")
	res, err := b.load(ctx, r, false, storage.Filter{})
	if err != nil {
		return SessionList{}, err
	}

	list := SessionList{RunID: r.id, Sessions: make([]SessionItem, 0, len(res.Sessions))}
	for _, s := range res.Sessions {
		list.Sessions = append(list.Sessions, newSessionItem(s))
	}
	if len(list.Sessions) == 0 {
		list.Empty = true
		list.Message = chart.MessageNoSessions
	}
	return list, nil
}

// Session builds the session review of session id.
func (b *Builder) Session(ctx context.Context, id int64) (SessionView, error) {
	r := b.newRun("session")
	res, err := b.load(ctx, r, false, storage.Filter{})
	if err != nil {
		return SessionView{}, err
	}
	s, ok := findSession(res.Sessions, id)
	if !ok {
		return SessionView{}, sessionNotFound(id)
	}

	sum := analysis.SummarizeSession(s, b.opts.SpeedUnit)
	return SessionView{
		RunID:      r.id,
		Session:    newSessionItem(s),
		Headlines:  sum.Headlines,
		TotalShots: sum.TotalShots,
		Strokes:    sum.Strokes,
		Spin:       newSpinView(sum.Spin),
		Charts: []chart.Spec{
			b.render(chart.IDStrokeDistribution, func() chart.Spec { return chart.StrokeDistribution(sum, b.opts.Chart) }),
			b.render(chart.IDSpinByStroke, func() chart.Spec { return chart.SpinByStroke(sum, b.opts.Chart) }),
		},
	}, nil
}

// Shots builds the shot analysis of session id.
func (b *Builder) Shots(ctx context.Context, id int64, req ShotsRequest) (ShotsView, error) {
	if err := req.normalize(); err != nil {
		return ShotsView{}, err
	}

	r := b.newRun("shots")
	// Unlinked shots carry no session id, so they are only found by a full
	// load.
	shotFilter := storage.Filter{SessionID: id}
	if b.opts.Wrangle.AssignUnlinked {
		shotFilter = storage.Filter{}
	}
	res, err := b.load(ctx, r, true, shotFilter)
	if err != nil {
		return ShotsView{}, err
	}
	if _, ok := findSession(res.Sessions, id); !ok {
		return ShotsView{}, sessionNotFound(id)
	}

	q := req.Query
	q.SessionID = id
	rep, err := analysis.AnalyzeShots(res.Shots, q, b.opts.Analysis)
	if err != nil {
		return ShotsView{}, err
	}
	hist, err := analysis.HistogramByType(rep.Shots, req.HistogramMetric, req.Bins)
	if err != nil {
		return ShotsView{}, err
	}

	view := ShotsView{
		RunID:      r.id,
		SessionID:  id,
		Window:     rep.Window,
		TotalShots: len(rep.Shots),
		Excluded:   res.ExcludedBySession[id].ByReason(),
		Relabeled:  relabeled(res.Shots, id),
		Summary:    rep.Summary,
		Charts: []chart.Spec{
			b.render(chart.IDShotTypes, func() chart.Spec { return chart.ShotTypeDistribution(rep, b.opts.Chart) }),
			b.render(chart.IDSpinDistribution, func() chart.Spec { return chart.SpinDistribution(rep, b.opts.Chart) }),
			b.render(chart.IDSpeedProgression, func() chart.Spec { return chart.SpeedProgression(rep, b.opts.SpeedUnit, b.opts.Chart) }),
			b.render(chart.IDCorrelation, func() chart.Spec { return chart.CorrelationHeatmap(rep) }),
			b.render(chart.IDScatter, func() chart.Spec { return chart.Scatter(rep, req.Scatter, b.opts.Chart) }),
			b.render(chart.IDHistogram, func() chart.Spec { return chart.Histogram(hist, b.opts.Chart) }),
		},
		Empty: rep.Empty(),
	}
	if view.Empty {
		view.Message = chart.MessageNoShots
	}
	r.log.Debug(ctx, "shots analyzed",
		logger.Int64("session_id", id),
		logger.Int("matched", view.TotalShots),
		logger.Int("window", view.Window))
	return view, nil
}

// History builds the historical view across every session.
func (b *Builder) History(ctx context.Context, req HistoryRequest) (HistoryView, error) {
	r := b.newRun("history")
	res, err := b.load(ctx, r, false, storage.Filter{})
	if err != nil {
		return HistoryView{}, err
	}

	hopts := req.HistoryOptions
	if hopts.MinSpeed == 0 {
		hopts.MinSpeed = b.opts.Wrangle.MinSpeed
	}
	h, err := analysis.BuildHistory(res.Sessions, hopts, b.opts.Analysis)
	if err != nil {
		return HistoryView{}, err
	}

	copts := b.opts.Chart
	copts.ShowTrend = copts.ShowTrend && !req.HideTrend
	copts.ShowRolling = copts.ShowRolling && !req.HideRolling

	view := HistoryView{
		RunID:      r.id,
		Window:     h.Window,
		Overall:    h.Overall,
		SpeedRange: h.SpeedRange,
		Charts: []chart.Spec{
			b.render(chart.IDPIQHistory, func() chart.Spec { return chart.PIQHistory(h, copts) }),
			b.render(chart.IDSpeedHistory, func() chart.Spec { return chart.SpeedHistory(h, b.opts.SpeedUnit, copts) }),
			b.render(chart.IDActivityHistory, func() chart.Spec { return chart.ActivityHistory(h, copts) }),
		},
		Empty: h.Empty(),
	}
	if view.Empty {
		view.Message = chart.MessageNoSessions
	}
	return view, nil
}

type run struct {
	id  string
	log logger.Logger
}

func (b *Builder) newRun(view string) run {
	id := uuid.New().String()
	return run{id: id, log: b.log.With(logger.String("run_id", id), logger.String("view", view))}
}

// load reads and wrangles one snapshot. Sessions are always loaded in full:
// shot alignment and the selector both need every session window.
func (b *Builder) load(ctx context.Context, r run, withShots bool, shotFilter storage.Filter) (wrangle.Result, error) {
	sessions, err := b.store.Sessions(ctx, storage.Filter{})
	if err != nil {
		r.log.Error(ctx, "failed to load sessions", logger.Error(err))
		return wrangle.Result{}, fmt.Errorf("load sessions: %w", err)
	}
	var shots []domain.Shot
	if withShots {
		shots, err = b.store.Shots(ctx, shotFilter)
		if err != nil {
			r.log.Error(ctx, "failed to load shots", logger.Error(err))
			return wrangle.Result{}, fmt.Errorf("load shots: %w", err)
		}
	}

	res := wrangle.Wrangle(sessions, shots, b.opts.Wrangle)
	for reason, n := range res.Excluded.ByReason() {
		metrics.RecordRowsExcluded(reason, n)
	}
	metrics.RecordMalformedSpin(res.MalformedSpin)

	if res.Excluded.Total() > 0 {
		r.log.Info(ctx, "excluded shot rows",
			logger.Int(wrangle.ReasonInvalidTime, res.Excluded.InvalidTime),
			logger.Int(wrangle.ReasonBelowMinSpeed, res.Excluded.BelowMinSpeed),
			logger.Int(wrangle.ReasonOrphaned, res.Excluded.Orphaned),
			logger.Int(wrangle.ReasonOutsideWindow, res.Excluded.OutsideWindow))
	}
	if res.MalformedSpin > 0 {
		r.log.Warn(ctx, "malformed spin statistics", logger.Int("sessions", res.MalformedSpin))
	}
	if res.Relabeled > 0 {
		r.log.Debug(ctx, "relabeled unknown categories", logger.Int("shots", res.Relabeled))
	}
	return res, nil
}

func (b *Builder) render(view string, build func() chart.Spec) chart.Spec {
	start := time.Now()
	spec := build()
	metrics.RecordRenderDuration(view, float64(time.Since(start).Microseconds())/1000)
	if spec.Empty {
		metrics.RecordRenderEmpty(view)
	}
	return spec
}

func (r *ShotsRequest) normalize() error {
	r.Scatter.ApplyDefaults()
	if _, ok := domain.ParseMetric(string(r.Scatter.X)); !ok {
		return fmt.Errorf("%w: unknown x metric %q", analysis.ErrInvalidQuery, r.Scatter.X)
	}
	if _, ok := domain.ParseMetric(string(r.Scatter.Y)); !ok {
		return fmt.Errorf("%w: unknown y metric %q", analysis.ErrInvalidQuery, r.Scatter.Y)
	}
	if !(r.Scatter.Jitter >= 0 && r.Scatter.Jitter <= 1) {
		return fmt.Errorf("%w: jitter must be within [0, 1], got %g", analysis.ErrInvalidQuery, r.Scatter.Jitter)
	}
	if r.HistogramMetric == "" {
		r.HistogramMetric = DefaultHistogramMetric
	}
	if _, ok := domain.ParseMetric(string(r.HistogramMetric)); !ok {
		return fmt.Errorf("%w: unknown histogram metric %q", analysis.ErrInvalidQuery, r.HistogramMetric)
	}
	if r.Bins == 0 {
		r.Bins = DefaultHistogramBins
	}
	if r.Bins < 1 || r.Bins > analysis.MaxHistogramBins {
		return fmt.Errorf("%w: bins must be within [1, %d], got %d", analysis.ErrInvalidQuery, analysis.MaxHistogramBins, r.Bins)
	}
	return nil
}

func relabeled(shots []domain.Shot, id int64) int {
	n := 0
	for _, s := range shots {
		if s.SessionID == id && (s.Type == domain.ShotUnknown || s.Spin == domain.SpinUnknown) {
			n++
		}
	}
	return n
}

func findSession(sessions []domain.Session, id int64) (domain.Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Session{}, false
}

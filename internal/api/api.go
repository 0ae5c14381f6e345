// Package api serves the dashboard views as a read-only JSON feed.
package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/logger"
	"github.com/blue-az/BabAnalysis/internal/metrics"
	"github.com/blue-az/BabAnalysis/internal/report"
)

// Reporter builds the dashboard views.
type Reporter interface {
	Sessions(ctx context.Context) (report.SessionList, error)
	Session(ctx context.Context, id int64) (report.SessionView, error)
	Shots(ctx context.Context, id int64, req report.ShotsRequest) (report.ShotsView, error)
	History(ctx context.Context, req report.HistoryRequest) (report.HistoryView, error)
}

var _ Reporter = (*report.Builder)(nil)

// Handler serves the HTTP routes.
type Handler struct {
	reports Reporter
	log     logger.Logger
}

// NewRouter registers every route on a new gin engine.
func NewRouter(reports Reporter, log logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{reports: reports, log: log.Named("api")}

	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), MetricsMiddleware())
	_ = router.SetTrustedProxies(nil)

	router.GET("/healthz", h.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	router.GET("/sessions", h.GetSessions)
	router.GET("/sessions/:id", h.GetSession)
	router.GET("/sessions/:id/shots", h.GetShots)
	router.GET("/history", h.GetHistory)

	return router
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetSessions(c *gin.Context) {
	list, err := h.reports.Sessions(c.Request.Context())
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSession(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	view, err := h.reports.Session(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetShots serves the shot analysis. Query parameters: type, spin and
// raw_type (comma separated or repeated), window, x, y, jitter, metric and
// bins.
func (h *Handler) GetShots(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	req, err := shotsRequest(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	view, err := h.reports.Shots(c.Request.Context(), id, req)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetHistory serves the historical view. Query parameters: window, forehand,
// backhand, min_speed, trend and rolling.
func (h *Handler) GetHistory(c *gin.Context) {
	req, err := historyRequest(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	view, err := h.reports.History(c.Request.Context(), req)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) abort(c *gin.Context, err error) {
	status := statusFor(err)
	fields := []logger.Field{
		logger.String("request_id", requestID(c)),
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.String("kind", errorKind(err)),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", fields...)
	} else {
		h.log.Debug(c.Request.Context(), "request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "request_id": requestID(c)})
}

func sessionID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid session id %q", ErrBadRequest, c.Param("id"))
	}
	return id, nil
}

func shotsRequest(c *gin.Context) (report.ShotsRequest, error) {
	var (
		req report.ShotsRequest
		err error
	)
	for _, v := range listParam(c, "type") {
		req.Query.ShotTypes = append(req.Query.ShotTypes, domain.ShotType(v))
	}
	for _, v := range listParam(c, "spin") {
		req.Query.Spins = append(req.Query.Spins, domain.SpinType(v))
	}
	req.Query.RawTypes = listParam(c, "raw_type")
	if req.Query.Window, err = intParam(c, "window"); err != nil {
		return req, err
	}
	if req.Bins, err = intParam(c, "bins"); err != nil {
		return req, err
	}
	if req.Scatter.Jitter, err = floatParam(c, "jitter"); err != nil {
		return req, err
	}
	req.Scatter.X = domain.Metric(c.Query("x"))
	req.Scatter.Y = domain.Metric(c.Query("y"))
	req.HistogramMetric = domain.Metric(c.Query("metric"))
	return req, nil
}

func historyRequest(c *gin.Context) (report.HistoryRequest, error) {
	var (
		req report.HistoryRequest
		err error
	)
	if req.Window, err = intParam(c, "window"); err != nil {
		return req, err
	}
	if req.MinSpeed, err = floatParam(c, "min_speed"); err != nil {
		return req, err
	}
	if req.ShowForehand, err = boolParam(c, "forehand", false); err != nil {
		return req, err
	}
	if req.ShowBackhand, err = boolParam(c, "backhand", false); err != nil {
		return req, err
	}
	trend, err := boolParam(c, "trend", true)
	if err != nil {
		return req, err
	}
	rolling, err := boolParam(c, "rolling", true)
	if err != nil {
		return req, err
	}
	req.HideTrend = !trend
	req.HideRolling = !rolling
	return req, nil
}

// listParam collects a repeated or comma separated parameter.
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

func floatParam(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number, got %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

func boolParam(c *gin.Context, name string, def bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%w: %s must be a boolean, got %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

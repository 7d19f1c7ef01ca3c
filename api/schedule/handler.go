// Package schedule exposes the skins schedule, its column visibility and
// the load history over HTTP with gin.
package schedule

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/history"
	"github.com/kilianp07/kgc/core/logger"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/internal/eventbus"
	"github.com/kilianp07/kgc/pkg/export"
	"github.com/kilianp07/kgc/render"
)

// reloadTimeout bounds a reload requested over HTTP.
const reloadTimeout = 30 * time.Second

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Reloader triggers an immediate load and returns the resulting snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*schedule.Snapshot, error)
}

// Options wires the handler. Store and Visibility are required; a nil
// History, Reloader or Hub disables the matching routes.
type Options struct {
	Store       *schedule.Store
	Visibility  *schedule.Visibility
	History     history.Store
	Reloader    Reloader
	Bus         eventbus.EventBus
	Hub         *Hub
	ReloadToken string
	Logger      logger.Logger
}

// Handler serves the schedule API.
type Handler struct {
	opts Options
	log  logger.Logger
}

// NewHandler returns a Handler for opts.
func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts, log: logger.OrNop(opts.Logger)}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	api := r.Group("/api")
	api.GET("/schedule", h.schedule)
	api.GET("/schedule/records", h.records)
	api.GET("/schedule/stats", h.stats)
	api.GET("/schedule/history", h.history)
	api.GET("/schedule/export.xlsx", h.export)
	api.GET("/schedule/export.csv", h.exportCSV)
	api.POST("/schedule/reload", h.requireToken, h.reload)
	api.GET("/columns", h.columns)
	api.POST("/columns/reset", h.resetColumns)
	api.POST("/columns/:key/toggle", h.toggleColumn)
	if h.opts.Hub != nil {
		api.GET("/live", func(c *gin.Context) { h.opts.Hub.ServeWS(c.Writer, c.Request) })
	}
}

// ScheduleResponse is the body of GET /api/schedule.
type ScheduleResponse struct {
	ID       string               `json:"id"`
	LoadedAt time.Time            `json:"loadedAt"`
	Rows     []schedule.MergedRow `json:"rows"`
	// LastError reports a failed reload while an older snapshot is served.
	LastError string `json:"lastError,omitempty"`
}

// current returns the snapshot or writes 503 with the load error.
func (h *Handler) current(c *gin.Context) (*schedule.Snapshot, bool) {
	snap, err := h.opts.Store.State()
	if snap == nil {
		msg := "schedule not loaded yet"
		if err != nil {
			msg = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
		return nil, false
	}
	return snap, true
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "loaded": h.opts.Store.Current() != nil})
}

func (h *Handler) schedule(c *gin.Context) {
	if _, ok := h.current(c); !ok {
		return
	}
	snap, err := h.opts.Store.State()
	resp := ScheduleResponse{ID: snap.ID, LoadedAt: snap.LoadedAt, Rows: snap.Merged}
	if err != nil {
		resp.LastError = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) records(c *gin.Context) {
	if snap, ok := h.current(c); ok {
		c.JSON(http.StatusOK, snap.Records)
	}
}

func (h *Handler) stats(c *gin.Context) {
	if snap, ok := h.current(c); ok {
		c.JSON(http.StatusOK, schedule.ComputeStats(snap.Merged))
	}
}

func (h *Handler) export(c *gin.Context) {
	snap, ok := h.current(c)
	if !ok {
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="kgc-skins-schedule.xlsx"`)
	c.Status(http.StatusOK)
	if err := render.WriteXLSX(c.Writer, render.FromSnapshot(snap, h.opts.Visibility)); err != nil {
		h.log.Errorf("write xlsx: %v", err)
	}
}

func (h *Handler) exportCSV(c *gin.Context) {
	snap, ok := h.current(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="kgc-skins-schedule.csv"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, render.FromSnapshot(snap, h.opts.Visibility)); err != nil {
		h.log.Errorf("write csv: %v", err)
	}
}

func (h *Handler) history(c *gin.Context) {
	if h.opts.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	q, err := parseHistoryQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.opts.History.Query(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func parseHistoryQuery(c *gin.Context) (history.Query, error) {
	var q history.Query
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, errors.New("start must be RFC3339")
		}
		q.Start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, errors.New("end must be RFC3339")
		}
		q.End = t
	}
	switch o := history.Outcome(c.Query("outcome")); o {
	case "", history.OutcomeSuccess, history.OutcomeFailure:
		q.Outcome = o
	default:
		return q, errors.New("outcome must be success or failure")
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, errors.New("limit must be a non-negative integer, 0 for no limit")
		}
		q.Limit = n
	}
	return q, nil
}

// requireToken enforces "Authorization: Bearer <token>" when a token is set.
func (h *Handler) requireToken(c *gin.Context) {
	token := h.opts.ReloadToken
	if token == "" {
		return
	}
	auth := c.GetHeader("Authorization")
	given, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

func (h *Handler) reload(c *gin.Context) {
	if h.opts.Reloader == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload not available"})
		return
	}
	// a client hanging up must not abort the load
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), reloadTimeout)
	defer cancel()
	snap, err := h.opts.Reloader.Reload(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": snap.ID, "loadedAt": snap.LoadedAt, "records": len(snap.Records)})
}

func (h *Handler) columns(c *gin.Context) {
	c.JSON(http.StatusOK, h.opts.Visibility.States())
}

func (h *Handler) toggleColumn(c *gin.Context) {
	key := schedule.Field(c.Param("key"))
	visible, err := h.opts.Visibility.Toggle(key)
	if errors.Is(err, schedule.ErrUnknownColumn) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if h.opts.Bus != nil {
		h.opts.Bus.Publish(events.ColumnToggled{Column: key, Visible: visible, Time: time.Now()})
	}
	h.log.Debugw("column toggled", map[string]any{"column": string(key), "visible": visible})
	c.JSON(http.StatusOK, gin.H{"key": key, "visible": visible})
}

func (h *Handler) resetColumns(c *gin.Context) {
	h.opts.Visibility.Reset()
	c.JSON(http.StatusOK, h.opts.Visibility.States())
}

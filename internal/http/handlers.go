package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coni/hyperisle/internal/digest"
	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/island"
	"github.com/coni/hyperisle/internal/normalize"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/priority"
	"github.com/coni/hyperisle/internal/shared/types"
)

// Pipeline is the slice of the engine the REST surface needs.
type Pipeline interface {
	Ingest(ev types.NotificationEvent) bool
	UpdateContext(cs types.ContextState) bool
	HandleAction(a types.UserAction) bool
	CurrentIsland() *types.ActiveIsland
}

// Handlers contains all HTTP handlers
type Handlers struct {
	pipeline Pipeline
	recorder *digest.Recorder
	prefs    *prefs.Store
	priority *priority.Engine
	dump     *island.Dump
	metrics  *monitoring.Metrics
	cfg      *config.Config
}

// NewHandlers creates a new handler set
func NewHandlers(
	pipeline Pipeline,
	recorder *digest.Recorder,
	prefsStore *prefs.Store,
	prio *priority.Engine,
	dump *island.Dump,
	metrics *monitoring.Metrics,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		recorder: recorder,
		prefs:    prefsStore,
		priority: prio,
		dump:     dump,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "island-engine",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	h.metrics.UpdateUptime()
	snap := h.metrics.GetSnapshot()

	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"island_active":     h.pipeline.CurrentIsland() != nil,
		"events_ingested":   snap.EventsIngested,
		"events_suppressed": snap.EventsSuppressed,
		"islands_created":   snap.IslandsCreated,
		"islands_completed": snap.IslandsCompleted,
		"action_errors":     snap.ActionErrors,
	})
}

// PostEvent normalizes and ingests one raw notification payload
func (h *Handlers) PostEvent(c *gin.Context) {
	var raw normalize.Raw
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, degraded := normalize.Event(raw, time.Now())
	if degraded {
		h.metrics.EventsMalformed.Inc()
	}

	if !h.pipeline.Ingest(ev) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine is shutting down"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"degraded": degraded,
	})
}

// PostContext applies a device context flip
func (h *Handlers) PostContext(c *gin.Context) {
	var cs types.ContextState
	if err := c.ShouldBindJSON(&cs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.pipeline.UpdateContext(cs) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine is shutting down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": true})
}

// PostAction forwards one user gesture into the pipeline
func (h *Handlers) PostAction(c *gin.Context) {
	var a types.UserAction
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validActionKind(a.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action kind"})
		return
	}
	if a.At.IsZero() {
		a.At = time.Now()
	}

	if !h.pipeline.HandleAction(a) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine is shutting down"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

// GetIsland returns the current arbitration winner, if any
func (h *Handlers) GetIsland(c *gin.Context) {
	cur := h.pipeline.CurrentIsland()
	if cur == nil {
		c.JSON(http.StatusOK, gin.H{"island": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"island":     cur,
		"island_key": cur.State.NotificationKey(),
		"state":      cur.State,
	})
}

// GetDigest summarizes suppressed and shown events for a window.
// Defaults to the last 24 hours.
func (h *Handlers) GetDigest(c *gin.Context) {
	if h.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "digest storage not configured"})
		return
	}

	from, to, err := digestWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.recorder.Summarize(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportDigest streams the raw digest rows for a window as gzipped JSON
func (h *Handlers) ExportDigest(c *gin.Context) {
	if h.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "digest storage not configured"})
		return
	}

	from, to, err := digestWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Encoding", "gzip")
	c.Header("Content-Disposition", `attachment; filename="digest.json.gz"`)

	if err := h.recorder.ExportGzip(c.Request.Context(), c.Writer, from, to); err != nil {
		// Headers are already out; nothing useful to send
		c.Abort()
	}
}

// GetPrefs returns the current preference snapshot
func (h *Handlers) GetPrefs(c *gin.Context) {
	c.JSON(http.StatusOK, h.prefs.Current())
}

// MuteApp adds a package to the muted set
func (h *Handlers) MuteApp(c *gin.Context) {
	h.mutatePrefs(c, h.prefs.MuteApp)
}

// BlockApp adds a package to the blocked set
func (h *Handlers) BlockApp(c *gin.Context) {
	h.mutatePrefs(c, h.prefs.BlockApp)
}

func (h *Handlers) mutatePrefs(c *gin.Context, apply func(string) error) {
	var req struct {
		Package string `json:"package" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := apply(req.Package); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"package": req.Package,
	})
}

// Dump returns recent lifecycle transitions and throttle decisions.
// Only mounted when debug mode is on; rows carry no notification text.
func (h *Handlers) Dump(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transitions": h.dump.Records(),
		"decisions":   h.priority.RecentDecisions(),
	})
}

// Package stats serves the registration counters and pushes them to the live
// websocket feed after every tracked registration.
package stats

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/models"
	"github.com/opensys-cosc/symposium/internal/realtime"
	"github.com/opensys-cosc/symposium/pkg/response"
)

const (
	// Topic is the hub topic of the live feed.
	Topic = "stats"
	// EventStats is the websocket event carrying models.AllStats.
	EventStats = "stats"
)

// Reader reads the registration counters.
type Reader interface {
	GetAllStats(ctx context.Context) (*models.AllStats, error)
	GetEventCount(ctx context.Context, event string) (int, error)
}

// Handler handles statistics HTTP endpoints and feeds the hub.
type Handler struct {
	reader  Reader
	catalog *events.Catalog
	hub     *realtime.Hub
	logger  *zap.Logger
}

// NewHandler creates a stats handler. hub may be nil when the live feed is off.
func NewHandler(reader Reader, catalog *events.Catalog, hub *realtime.Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{reader: reader, catalog: catalog, hub: hub, logger: logger}
	if hub != nil {
		hub.SetJoinHandler(h.sendSnapshot)
	}
	return h
}

// Register mounts the stats routes.
func (h *Handler) Register(r gin.IRouter, allowedOrigins []string) {
	r.GET("/stats", h.GetAll)
	r.GET("/stats/events/:event", h.GetEvent)
	if h.hub != nil {
		r.GET("/ws/stats", realtime.ServeWs(h.hub, Topic, allowedOrigins, h.logger))
	}
}

// GetAll handles GET /stats.
func (h *Handler) GetAll(c *gin.Context) {
	s, err := h.reader.GetAllStats(c.Request.Context())
	if err != nil {
		h.logger.Error("get stats failed", zap.Error(err))
		response.Internal(c, "failed to load statistics")
		return
	}
	response.OK(c, s)
}

// GetEvent handles GET /stats/events/:event.
func (h *Handler) GetEvent(c *gin.Context) {
	ev, err := h.catalog.Lookup(c.Param("event"))
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	n, err := h.reader.GetEventCount(c.Request.Context(), ev.Name)
	if err != nil {
		h.logger.Error("get event count failed", zap.Error(err), zap.String("event", ev.Name))
		response.Internal(c, "failed to load statistics")
		return
	}
	response.OK(c, gin.H{"event": ev.Name, "count": n})
}

// RegistrationTracked publishes fresh counters to every feed subscriber.
func (h *Handler) RegistrationTracked(ctx context.Context, event string) {
	if h.hub == nil {
		return
	}
	s, err := h.reader.GetAllStats(ctx)
	if err != nil {
		h.logger.Warn("stats refresh failed", zap.Error(err), zap.String("event", event))
		return
	}
	h.hub.Publish(Topic, EventStats, s)
}

func (h *Handler) sendSnapshot(c *realtime.Client) {
	if c.Topic != Topic {
		return
	}
	s, err := h.reader.GetAllStats(context.Background())
	if err != nil {
		h.logger.Warn("stats snapshot failed", zap.Error(err))
		return
	}
	c.Send(EventStats, s)
}

package registrations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opensys-cosc/symposium/internal/docstore"
	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/validation"
	"github.com/opensys-cosc/symposium/pkg/response"
)

const (
	// DeviceHeader carries the device id of non-browser clients.
	DeviceHeader = "X-Device-ID"
	// DeviceCookie carries the device id of browsers.
	DeviceCookie = "device_id"

	deviceCookieMaxAge = 60 * 60 * 24 * 90
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	catalog *events.Catalog
	svc     *Service
	logger  *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(catalog *events.Catalog, svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, svc: svc, logger: logger}
}

// Register mounts the registration routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/events", h.ListEvents)
	r.GET("/options", h.Options)
	g := r.Group("/events/:event/registration")
	g.GET("", h.Get)
	g.POST("", h.Submit)
	g.POST("/validate", h.Validate)
	g.DELETE("", h.RegisterAnother)
}

// ListEvents handles GET /events.
func (h *Handler) ListEvents(c *gin.Context) {
	response.OK(c, h.catalog.All())
}

// Options handles GET /options.
func (h *Handler) Options(c *gin.Context) {
	response.OK(c, gin.H{
		"colleges": validation.CollegeOptions,
		"branches": validation.BranchOptions,
		"years":    validation.YearOptions,
	})
}

// Get handles GET /events/:event/registration. Returns the pre-filled form or
// the confirmation view of a device that already registered.
func (h *Handler) Get(c *gin.Context) {
	ev, ok := h.event(c)
	if !ok {
		return
	}
	sess, err := h.svc.Load(c.Request.Context(), ev, deviceID(c, false))
	if err != nil {
		h.logger.Error("load session failed", zap.Error(err), zap.String("event", ev.Name))
		response.Internal(c, "failed to load registration")
		return
	}
	response.OK(c, sess.View())
}

// Validate handles POST /events/:event/registration/validate. Runs only the
// local checks.
func (h *Handler) Validate(c *gin.Context) {
	ev, ok := h.event(c)
	if !ok {
		return
	}
	sess, ok := h.bindSession(c, ev)
	if !ok {
		return
	}
	if !sess.Validate() {
		view := sess.View()
		response.Unprocessable(c, view.Error, view)
		return
	}
	response.OK(c, sess.View())
}

// Submit handles POST /events/:event/registration.
func (h *Handler) Submit(c *gin.Context) {
	ev, ok := h.event(c)
	if !ok {
		return
	}
	sess, ok := h.bindSession(c, ev)
	if !ok {
		return
	}
	receipt, err := h.svc.Submit(c.Request.Context(), sess, deviceID(c, true))
	if err != nil {
		h.writeSubmitError(c, sess, err)
		return
	}
	response.Created(c, gin.H{
		"registration": receipt,
		"session":      sess.View(),
	})
}

// RegisterAnother handles DELETE /events/:event/registration.
func (h *Handler) RegisterAnother(c *gin.Context) {
	ev, ok := h.event(c)
	if !ok {
		return
	}
	sess, err := h.svc.RegisterAnother(c.Request.Context(), ev, deviceID(c, false))
	if err != nil {
		h.logger.Error("clear session failed", zap.Error(err), zap.String("event", ev.Name))
		response.Internal(c, "failed to reset registration")
		return
	}
	response.OK(c, sess.View())
}

func (h *Handler) event(c *gin.Context) (events.Event, bool) {
	ev, err := h.catalog.Lookup(c.Param("event"))
	if err != nil {
		response.NotFound(c, "event not found")
		return events.Event{}, false
	}
	return ev, true
}

func (h *Handler) bindSession(c *gin.Context, ev events.Event) (*Session, bool) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return nil, false
	}
	sess := NewSession(ev)
	if err := sess.ApplyForm(form); err != nil {
		response.BadRequest(c, err.Error())
		return nil, false
	}
	return sess, true
}

func (h *Handler) writeSubmitError(c *gin.Context, sess *Session, err error) {
	view := sess.View()
	var se *docstore.Error
	switch {
	case errors.Is(err, ErrValidation):
		response.Unprocessable(c, view.Error, view)
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrClosed):
		response.Conflict(c, view.Error, view)
	case errors.As(err, &se) && se.Code() == validation.CodeUnavailable:
		response.ServiceUnavailable(c, view.Error, view)
	case errors.As(err, &se):
		response.BadGateway(c, view.Error, view)
	default:
		h.logger.Error("submit registration failed", zap.Error(err), zap.String("event", view.Event))
		response.Internal(c, view.Error)
	}
}

// deviceID reads the device id from the header or cookie. With issue set, a
// missing id is generated and returned to the client as a cookie.
func deviceID(c *gin.Context, issue bool) string {
	if id := c.GetHeader(DeviceHeader); id != "" {
		return id
	}
	if id, err := c.Cookie(DeviceCookie); err == nil && id != "" {
		return id
	}
	if !issue {
		return ""
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(DeviceCookie, id, deviceCookieMaxAge, "/", "", false, true)
	c.Header(DeviceHeader, id)
	return id
}

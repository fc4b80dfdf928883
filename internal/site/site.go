// Package site serves the public content of the symposium home page.
package site

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/pkg/response"
	"github.com/opensys-cosc/symposium/pkg/storage"
)

// CountdownTarget is when the countdown on the home page reaches zero.
var CountdownTarget = time.Date(2026, time.February, 14, 18, 30, 0, 0, time.UTC)

// FAQ is one question of the home page FAQ.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQs are the home page questions in display order.
var FAQs = []FAQ{
	{"Who can participate?", "The events are open to anyone with a zeal to learn, collaborate, and compete over open-source technologies. Whether you're a student, professional, or enthusiast, all are welcome!"},
	{"Is this event open to beginners?", "Absolutely! Whether you're a beginner, professional, or simply someone who is passionate about open-source software, there's something for everyone at OpenSys. We provide resources and support for all skill levels."},
	{"Is there any registration fee?", "No, the events are completely free to participate in. We believe in making technology accessible to everyone regardless of financial constraints."},
	{"When do the events begin?", "The events take place over two exciting days, on February 17th and February 18th, 2026. Mark your calendars and get ready for an amazing experience!"},
	{"What types of events are included?", "OpenSys features a diverse range of events including GIT Arcana (an innovative GitHub repository exploration challenge), Decipher (a dynamic decryption challenge), and Odyssey (a thrilling two-day puzzle-solving adventure)."},
	{"How do I register for events?", "Simply browse our events section, click on the event you're interested in, and click the 'Register Now' button. Fill out the required information and you're all set!"},
	{"Will there be prizes for winners?", "Yes! Each event offers exciting prizes including cash rewards, tech gadgets, certificates, and networking opportunities with industry professionals."},
	{"Can I participate in multiple events?", "Yes, you can register for and participate in multiple events as long as the schedules don't overlap. We encourage participants to explore different challenges!"},
}

// Gallery lists gallery images and resolves their URLs.
type Gallery interface {
	ListImages(ctx context.Context) ([]storage.Object, error)
	ObjectURL(ctx context.Context, key string) (string, error)
}

// Image is one gallery image.
type Image struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Handler handles site content endpoints.
type Handler struct {
	catalog  *events.Catalog
	gallery  Gallery
	cacheTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	cached   [][]Image
	cachedAt time.Time
}

// NewHandler creates a site handler. gallery may be nil when no bucket is configured.
func NewHandler(catalog *events.Catalog, gallery Gallery, cacheTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, gallery: gallery, cacheTTL: cacheTTL, now: time.Now, logger: logger}
}

// Register mounts the site routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/site", h.Site)
	r.GET("/gallery", h.Gallery)
}

// Site handles GET /site.
func (h *Handler) Site(c *gin.Context) {
	remaining := CountdownTarget.Sub(h.now())
	if remaining < 0 {
		remaining = 0
	}
	response.OK(c, gin.H{
		"countdown": gin.H{
			"target":           CountdownTarget,
			"remainingSeconds": int64(remaining.Seconds()),
		},
		"events": h.catalog.All(),
		"faqs":   FAQs,
	})
}

// Gallery handles GET /gallery. Images come back split into two rows.
func (h *Handler) Gallery(c *gin.Context) {
	if h.gallery == nil {
		response.OK(c, gin.H{"rows": [][]Image{}})
		return
	}
	rows, err := h.rows(c.Request.Context())
	if err != nil {
		h.logger.Error("list gallery failed", zap.Error(err))
		response.ServiceUnavailable(c, "gallery unavailable", nil)
		return
	}
	response.OK(c, gin.H{"rows": rows})
}

func (h *Handler) rows(ctx context.Context) ([][]Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cached != nil && h.now().Sub(h.cachedAt) < h.cacheTTL {
		return h.cached, nil
	}
	objs, err := h.gallery.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(objs))
	for _, o := range objs {
		url, err := h.gallery.ObjectURL(ctx, o.Key)
		if err != nil {
			return nil, err
		}
		images = append(images, Image{Key: o.Key, URL: url})
	}
	half := (len(images) + 1) / 2
	h.cached = [][]Image{images[:half], images[half:]}
	h.cachedAt = h.now()
	return h.cached, nil
}

package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensys-cosc/symposium/internal/docstore"
	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/models"
	"github.com/opensys-cosc/symposium/internal/realtime"
	"github.com/opensys-cosc/symposium/internal/tracker"
)

func setup(t *testing.T) (*tracker.Tracker, *realtime.Hub, *Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tr := tracker.New(docstore.NewMemoryStore(), nil)
	hub := realtime.NewHub(nil, nil, nil)
	h := NewHandler(tr, events.NewCatalog(), hub, nil)
	r := gin.New()
	h.Register(r, nil)
	return tr, hub, h, r
}

func TestGetAll(t *testing.T) {
	tr, _, _, r := setup(t)
	_, err := tr.TrackRegistration(context.Background(), "decipher", "CBIT")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.AllStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Total)
	assert.Equal(t, 1, body.Data.Cbit)
	assert.Equal(t, 1, body.Data.EventCounts["decipher"])
}

func TestGetEvent(t *testing.T) {
	tr, _, _, r := setup(t)
	_, err := tr.IncrementEventCount(context.Background(), "odyssey")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/events/Odyssey", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/events/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationTrackedPushesToFeed(t *testing.T) {
	tr, hub, h, _ := setup(t)
	c := realtime.NewClient(Topic, 4)
	hub.Register(c)
	snapshot := <-c.Messages()
	assert.Equal(t, EventStats, snapshot.Event)

	_, err := tr.TrackRegistration(context.Background(), "gitarcana", "JNTU")
	require.NoError(t, err)
	h.RegistrationTracked(context.Background(), "gitarcana")

	msg := <-c.Messages()
	var s models.AllStats
	require.NoError(t, json.Unmarshal(msg.Data, &s))
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.NonCbit)
}

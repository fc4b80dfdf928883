package site

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/pkg/storage"
)

type mockGallery struct{ mock.Mock }

func (m *mockGallery) ListImages(ctx context.Context) ([]storage.Object, error) {
	args := m.Called(ctx)
	objs, _ := args.Get(0).([]storage.Object)
	return objs, args.Error(1)
}

func (m *mockGallery) ObjectURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSite(t *testing.T) {
	h := NewHandler(events.NewCatalog(), nil, time.Minute, nil)
	h.now = func() time.Time { return CountdownTarget.Add(-90 * time.Second) }

	w := serve(h, "/site")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Countdown struct {
				RemainingSeconds int64 `json:"remainingSeconds"`
			} `json:"countdown"`
			Events []events.Event `json:"events"`
			FAQs   []FAQ          `json:"faqs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(90), body.Data.Countdown.RemainingSeconds)
	assert.Len(t, body.Data.Events, 3)
	assert.Len(t, body.Data.FAQs, 8)
}

func TestSite_CountdownStopsAtZero(t *testing.T) {
	h := NewHandler(events.NewCatalog(), nil, time.Minute, nil)
	h.now = func() time.Time { return CountdownTarget.Add(time.Hour) }
	w := serve(h, "/site")
	assert.Contains(t, w.Body.String(), `"remainingSeconds":0`)
}

func TestGallery_SplitsRowsAndCaches(t *testing.T) {
	g := &mockGallery{}
	g.On("ListImages", mock.Anything).Return([]storage.Object{
		{Key: "gallery/1.jpg"}, {Key: "gallery/2.jpg"}, {Key: "gallery/3.jpg"},
	}, nil).Once()
	g.On("ObjectURL", mock.Anything, mock.AnythingOfType("string")).Return("https://cdn/x.jpg", nil)

	h := NewHandler(events.NewCatalog(), g, time.Minute, nil)
	w := serve(h, "/gallery")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Rows [][]Image `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 2)
	assert.Len(t, body.Data.Rows[0], 2)
	assert.Len(t, body.Data.Rows[1], 1)

	w = serve(h, "/gallery")
	assert.Equal(t, http.StatusOK, w.Code)
	g.AssertNumberOfCalls(t, "ListImages", 1)
}

func TestGallery_ListFailure(t *testing.T) {
	g := &mockGallery{}
	g.On("ListImages", mock.Anything).Return(nil, errors.New("access denied"))

	h := NewHandler(events.NewCatalog(), g, time.Minute, nil)
	w := serve(h, "/gallery")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensys-cosc/symposium/internal/validation"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "counters", "total")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetMergeKeepsOtherFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	fixed := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	require.NoError(t, s.Set(ctx, "counters", "total", map[string]interface{}{"count": 1, "note": "keep"}, SetOptions{}))
	require.NoError(t, s.Set(ctx, "counters", "total", map[string]interface{}{"count": 2, "lastUpdated": ServerTimestamp}, SetOptions{Merge: true}))

	doc, err := s.Get(ctx, "counters", "total")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Int("count"))
	assert.Equal(t, "keep", doc.Data["note"])
	assert.Equal(t, fixed.Format(time.RFC3339Nano), doc.Data["lastUpdated"])
}

func TestMemoryStore_SetWithoutMergeReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "c", "a", map[string]interface{}{"x": 1, "y": 2}, SetOptions{}))
	require.NoError(t, s.Set(ctx, "c", "a", map[string]interface{}{"x": 3}, SetOptions{}))

	doc, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Int("x"))
	_, ok := doc.Data["y"]
	assert.False(t, ok)
}

func TestMemoryStore_QueryOperators(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Add(ctx, "teams", map[string]interface{}{"teamType": "duo", "emails": []string{"a@x.com", "b@x.com"}})
	require.NoError(t, err)
	_, err = s.Add(ctx, "teams", map[string]interface{}{"teamType": "solo", "emails": []string{"c@x.com"}})
	require.NoError(t, err)

	got, err := s.Query(ctx, "teams", ArrayContains("emails", "b@x.com"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "duo", got[0].Data["teamType"])

	got, err = s.Query(ctx, "teams", Where("teamType", "solo"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.Query(ctx, "teams", Where("teamType", "trio"))
	require.NoError(t, err)
	assert.Empty(t, got)

	all, err := s.List(ctx, "teams")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "c", "a", map[string]interface{}{"x": 1}, SetOptions{}))

	doc, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	doc.Data["x"] = 99

	again, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Int("x"))
}

func TestMemoryStore_CanceledContextIsUnavailable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Add(ctx, "c", map[string]interface{}{"x": 1})
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, validation.CodeUnavailable, se.Code())
	assert.Equal(t, "Service temporarily unavailable. Please try again in a few minutes.", validation.StoreErrorMessage(err))
}

func TestDocument_DataToAndToFields(t *testing.T) {
	t.Parallel()

	type rec struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}
	fields, err := ToFields(rec{Name: "n", Count: 3, Tags: []string{"a"}})
	require.NoError(t, err)

	s := NewMemoryStore()
	ctx := context.Background()
	id, err := s.Add(ctx, "recs", fields)
	require.NoError(t, err)

	doc, err := s.Get(ctx, "recs", id)
	require.NoError(t, err)
	var out rec
	require.NoError(t, doc.DataTo(&out))
	assert.Equal(t, rec{Name: "n", Count: 3, Tags: []string{"a"}}, out)
}

func TestDocument_IntOnNil(t *testing.T) {
	t.Parallel()

	var d *Document
	assert.Equal(t, 0, d.Int("count"))
}

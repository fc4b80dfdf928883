package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opensys-cosc/symposium/internal/validation"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	cols  map[string]map[string]*Document
	clock func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cols:  make(map[string]map[string]*Document),
		clock: time.Now,
	}
}

// SetClock overrides the clock used for ServerTimestamp and document times.
func (s *MemoryStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// Get returns a copy of the document.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(validation.CodeUnavailable, "get: "+err.Error(), err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.cols[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	cp, err := copyDocument(doc)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Set writes a document, merging into the existing one when opts.Merge is set.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, opts SetOptions) error {
	if err := ctx.Err(); err != nil {
		return NewError(validation.CodeUnavailable, "set: "+err.Error(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	data, err := normalize(resolveTimestamps(fields, now))
	if err != nil {
		return err
	}
	col := s.collection(collection)
	existing, ok := col[id]
	if !ok {
		col[id] = &Document{ID: id, Collection: collection, Data: data, CreateTime: now, UpdateTime: now}
		return nil
	}
	if opts.Merge {
		for k, v := range data {
			existing.Data[k] = v
		}
	} else {
		existing.Data = data
	}
	existing.UpdateTime = now
	return nil
}

// Add inserts a document under a generated id.
func (s *MemoryStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields, SetOptions{}); err != nil {
		return "", err
	}
	return id, nil
}

// Query scans the collection and returns matching documents ordered by creation.
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	want, err := normalizeValue(filter.Value)
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for _, d := range docs {
		if matches(d.Data[filter.Field], filter.Op, want) {
			out = append(out, d)
		}
	}
	return out, nil
}

// List returns every document of the collection ordered by creation.
func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(validation.CodeUnavailable, "list: "+err.Error(), err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.cols[collection]))
	for _, d := range s.cols[collection] {
		cp, err := copyDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreateTime.Equal(out[j].CreateTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreateTime.Before(out[j].CreateTime)
	})
	return out, nil
}

func (s *MemoryStore) collection(name string) map[string]*Document {
	col, ok := s.cols[name]
	if !ok {
		col = make(map[string]*Document)
		s.cols[name] = col
	}
	return col
}

func matches(field interface{}, op Op, want interface{}) bool {
	switch op {
	case OpEqual:
		return equalJSON(field, want)
	case OpArrayContains:
		arr, ok := field.([]interface{})
		if !ok {
			return false
		}
		for _, v := range arr {
			if equalJSON(v, want) {
				return true
			}
		}
	}
	return false
}

func equalJSON(a, b interface{}) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

// normalize round-trips fields through JSON so stored data has the same shape
// as data read back from PostgreSQL.
func normalize(fields map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal filter value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal filter value: %w", err)
	}
	return out, nil
}

func copyDocument(d *Document) (*Document, error) {
	data, err := normalize(d.Data)
	if err != nil {
		return nil, err
	}
	return &Document{
		ID:         d.ID,
		Collection: d.Collection,
		Data:       data,
		CreateTime: d.CreateTime,
		UpdateTime: d.UpdateTime,
	}, nil
}

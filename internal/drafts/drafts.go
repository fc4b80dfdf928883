// Package drafts is the per-device key/value storage that lets a registration
// form pre-fill itself and remember that a device already registered.
package drafts

import (
	"context"
	"sync"
	"time"
)

// Store holds string values per device id.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, device, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, device, key, value string) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, device string, keys ...string) error
}

// MemoryStore keeps device values in process memory. Entries expire after ttl
// when ttl is positive.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	devices map[string]map[string]entry
}

type entry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory device store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, devices: make(map[string]map[string]entry)}
}

// Get returns the value of key and whether it exists and has not expired.
func (s *MemoryStore) Get(_ context.Context, device, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.devices[device][key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.devices[device], key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key and restarts its expiry.
func (s *MemoryStore) Set(_ context.Context, device, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.devices[device]
	if !ok {
		m = make(map[string]entry)
		s.devices[device] = m
	}
	e := entry{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	m[key] = e
	return nil
}

// Delete removes keys from the device.
func (s *MemoryStore) Delete(_ context.Context, device string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.devices[device], k)
	}
	if len(s.devices[device]) == 0 {
		delete(s.devices, device)
	}
	return nil
}

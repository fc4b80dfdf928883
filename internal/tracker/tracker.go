// Package tracker keeps the aggregate registration counters: total, per event
// and CBIT versus other colleges.
//
// Every increment is a read followed by a merge-write with no concurrency
// check. Two registrations that read the same value both write value+1 and one
// increment is lost. Counters are best-effort statistics and callers treat
// tracker failures as non-fatal.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opensys-cosc/symposium/internal/docstore"
	"github.com/opensys-cosc/symposium/internal/models"
)

// Counter collections and fixed document ids.
const (
	TotalCollection = "eventRegistrationCounters"
	TotalDocID      = "totalRegistrations"
	EventCollection = "individualEventCounters"
	CbitCollection  = "cbitNonCbitCounters"

	CategoryCbit    = "cbit"
	CategoryNonCbit = "nonCbit"
)

// KnownEvents are reported by AllStats even before their first registration.
var KnownEvents = []string{"gitarcana", "decipher", "odyssey"}

var cbitMarkers = []string{"cbit", "chaitanya bharathi institute of technology", "chaitanya bharathi"}

// IsCbit reports whether the college name refers to CBIT.
func IsCbit(college string) bool {
	lc := strings.ToLower(college)
	for _, m := range cbitMarkers {
		if strings.Contains(lc, m) {
			return true
		}
	}
	return false
}

// Category returns the counter document id for a college name.
func Category(college string) string {
	if IsCbit(college) {
		return CategoryCbit
	}
	return CategoryNonCbit
}

// Tracker increments and reads the registration counters.
type Tracker struct {
	store  docstore.Store
	logger *zap.Logger
}

// New creates a tracker over the given store.
func New(store docstore.Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger}
}

// IncrementTotal bumps the total registrations counter and returns the new count.
func (t *Tracker) IncrementTotal(ctx context.Context) (int, error) {
	n, err := t.increment(ctx, TotalCollection, TotalDocID, nil)
	if err != nil {
		return 0, fmt.Errorf("increment total: %w", err)
	}
	return n, nil
}

// IncrementEventCount bumps the counter of one event, keyed by its lower-cased name.
func (t *Tracker) IncrementEventCount(ctx context.Context, event string) (int, error) {
	n, err := t.increment(ctx, EventCollection, strings.ToLower(event), map[string]interface{}{"eventName": event})
	if err != nil {
		return 0, fmt.Errorf("increment %s count: %w", event, err)
	}
	return n, nil
}

// IncrementCbitVsOther bumps the CBIT or non-CBIT counter and returns the
// category with its new count.
func (t *Tracker) IncrementCbitVsOther(ctx context.Context, college string) (string, int, error) {
	category := Category(college)
	n, err := t.increment(ctx, CbitCollection, category, map[string]interface{}{"category": category})
	if err != nil {
		return "", 0, fmt.Errorf("increment %s count: %w", category, err)
	}
	return category, n, nil
}

// TrackRegistration runs the three increments concurrently. The first failure
// is returned; increments that already landed are not rolled back.
func (t *Tracker) TrackRegistration(ctx context.Context, event, college string) (*models.TrackResult, error) {
	var res models.TrackResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := t.IncrementTotal(gctx)
		res.TotalCount = n
		return err
	})
	g.Go(func() error {
		n, err := t.IncrementEventCount(gctx, event)
		res.EventCount = n
		return err
	})
	g.Go(func() error {
		category, n, err := t.IncrementCbitVsOther(gctx, college)
		res.Category, res.CategoryCount = category, n
		return err
	})
	if err := g.Wait(); err != nil {
		t.logger.Error("track registration failed", zap.Error(err), zap.String("event", event))
		return nil, err
	}
	t.logger.Debug("registration tracked",
		zap.String("event", event),
		zap.Int("total", res.TotalCount),
		zap.Int("event_count", res.EventCount),
		zap.String("category", res.Category),
	)
	return &res, nil
}

// GetTotalCount returns the total registrations counter.
func (t *Tracker) GetTotalCount(ctx context.Context) (int, error) {
	n, err := t.read(ctx, TotalCollection, TotalDocID)
	if err != nil {
		return 0, fmt.Errorf("get total count: %w", err)
	}
	return n, nil
}

// GetEventCount returns the counter of one event.
func (t *Tracker) GetEventCount(ctx context.Context, event string) (int, error) {
	n, err := t.read(ctx, EventCollection, strings.ToLower(event))
	if err != nil {
		return 0, fmt.Errorf("get %s count: %w", event, err)
	}
	return n, nil
}

// GetCbitNonCbitCounts returns both college category counters.
func (t *Tracker) GetCbitNonCbitCounts(ctx context.Context) (models.CbitCounts, error) {
	var counts models.CbitCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := t.read(gctx, CbitCollection, CategoryCbit)
		counts.Cbit = n
		return err
	})
	g.Go(func() error {
		n, err := t.read(gctx, CbitCollection, CategoryNonCbit)
		counts.NonCbit = n
		return err
	})
	if err := g.Wait(); err != nil {
		return models.CbitCounts{}, fmt.Errorf("get cbit counts: %w", err)
	}
	return counts, nil
}

// GetAllStats aggregates every counter, including zero counts for KnownEvents.
func (t *Tracker) GetAllStats(ctx context.Context) (*models.AllStats, error) {
	total, err := t.GetTotalCount(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := t.GetCbitNonCbitCounts(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.AllStats{
		Total:       total,
		Cbit:        counts.Cbit,
		NonCbit:     counts.NonCbit,
		EventCounts: make(map[string]int, len(KnownEvents)),
	}
	for _, e := range KnownEvents {
		n, err := t.GetEventCount(ctx, e)
		if err != nil {
			return nil, err
		}
		stats.EventCounts[e] = n
	}
	return stats, nil
}

func (t *Tracker) increment(ctx context.Context, collection, id string, extra map[string]interface{}) (int, error) {
	current, err := t.read(ctx, collection, id)
	if err != nil {
		return 0, err
	}
	fields := map[string]interface{}{
		"count":       current + 1,
		"lastUpdated": docstore.ServerTimestamp,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := t.store.Set(ctx, collection, id, fields, docstore.SetOptions{Merge: true}); err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (t *Tracker) read(ctx context.Context, collection, id string) (int, error) {
	doc, err := t.store.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Int("count"), nil
}

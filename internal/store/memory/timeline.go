package memory

import (
	"context"
	"sort"
	"sync"

	"benchtrack.org/internal/timeline"
)

// Timeline implements timeline.Store in memory.
type Timeline struct {
	mu     sync.RWMutex
	events []timeline.ProductEvent
	acts   []timeline.ActivityLog
}

var _ timeline.Store = (*Timeline)(nil)

// NewTimeline creates an empty timeline store.
func NewTimeline() *Timeline {
	return &Timeline{}
}

func (s *Timeline) AppendProductEvent(ctx context.Context, e *timeline.ProductEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func (s *Timeline) AppendActivity(ctx context.Context, a *timeline.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acts = append(s.acts, *a)
	return nil
}

func (s *Timeline) ProductEvents(ctx context.Context, productID string) ([]timeline.ProductEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []timeline.ProductEvent
	for _, e := range s.events {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Timeline) Activities(ctx context.Context, limit int) ([]timeline.ActivityLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]timeline.ActivityLog, len(s.acts))
	copy(out, s.acts)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

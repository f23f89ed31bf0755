package timeline

import (
	"context"
	"time"

	"benchtrack.org/internal/ids"
	"benchtrack.org/internal/obs"
)

// Publisher pushes recorded events to an external broker for dashboard
// consumers. Implementations are best-effort; errors are the publisher's
// problem to log.
type Publisher interface {
	PublishProductEvent(ctx context.Context, e ProductEvent) error
}

// Recorder is the write side of the timeline. Failures are counted, logged
// and swallowed: a broken audit pipeline must not turn a succeeded
// fulfillment or login into a user-visible error.
type Recorder struct {
	store Store
	pub   Publisher // optional
	now   func() time.Time
}

// NewRecorder builds a Recorder. pub may be nil.
func NewRecorder(store Store, pub Publisher) *Recorder {
	return &Recorder{store: store, pub: pub, now: time.Now}
}

// RecordProductEvent appends a timeline row for a product.
func (r *Recorder) RecordProductEvent(ctx context.Context, productID string, eventType EventType, description, userID string) {
	if r == nil || r.store == nil || productID == "" || eventType == "" {
		return
	}
	e := &ProductEvent{
		ID:          ids.New(),
		ProductID:   productID,
		EventType:   eventType,
		Description: description,
		UserID:      userID,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.store.AppendProductEvent(ctx, e); err != nil {
		obs.RecorderFailure()
		obs.LogEvent("timeline.product_event.failed", map[string]any{
			"product_id": productID,
			"event_type": string(eventType),
			"error":      err.Error(),
		})
		return
	}
	if r.pub != nil {
		if err := r.pub.PublishProductEvent(ctx, *e); err != nil {
			obs.RecorderFailure()
			obs.LogEvent("timeline.publish.failed", map[string]any{
				"product_id": productID,
				"event_type": string(eventType),
				"error":      err.Error(),
			})
		}
	}
}

// RecordActivity appends a row to the system-wide activity log.
func (r *Recorder) RecordActivity(ctx context.Context, userID, action, entityType, entityID, description string) {
	if r == nil || r.store == nil || action == "" {
		return
	}
	a := &ActivityLog{
		ID:          ids.New(),
		UserID:      userID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.store.AppendActivity(ctx, a); err != nil {
		obs.RecorderFailure()
		obs.LogEvent("timeline.activity.failed", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}
}

// Package timeline records append-only history: per-product lifecycle events
// and the process-wide activity log the admin dashboard reads. Nothing here
// is a decision point; writes are best-effort and must never fail the
// operation that triggered them.
package timeline

import (
	"context"
	"time"
)

// EventType is a product lifecycle milestone.
type EventType string

const (
	EventReceived           EventType = "received"
	EventDiagnosed          EventType = "diagnosed"
	EventRepairStarted      EventType = "repair_started"
	EventComponentRequested EventType = "component_requested"
	EventComponentFulfilled EventType = "component_fulfilled"
	EventRepairCompleted    EventType = "repair_completed"
	EventShipped            EventType = "shipped"
)

// ProductEvent is one row of a product's timeline, displayed newest-first.
type ProductEvent struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	EventType   EventType `json:"event_type"`
	Description string    `json:"description"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityLog is one row of the system-wide audit feed.
type ActivityLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    string    `json:"entity_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists timeline rows. Both appends are plain inserts with no
// cross-row ordering requirements.
type Store interface {
	AppendProductEvent(ctx context.Context, e *ProductEvent) error
	AppendActivity(ctx context.Context, a *ActivityLog) error

	// ProductEvents returns a product's timeline, newest first.
	ProductEvents(ctx context.Context, productID string) ([]ProductEvent, error)

	// Activities returns the most recent activity rows, newest first.
	Activities(ctx context.Context, limit int) ([]ActivityLog, error)
}

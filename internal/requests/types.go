// Package requests tracks component requests from creation through
// fulfillment. Fulfill is the one composite operation in the system with a
// hard atomicity requirement: the pending→fulfilled transition and the
// fulfillment log append happen together or not at all.
package requests

import (
	"context"
	"time"

	"benchtrack.org/internal/directory"
)

// Status is the component request lifecycle state. Fulfilled and cancelled
// are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

// ComponentRequest is a demand, raised by an engineer, for a quantity of a
// specific component against a specific product repair. FulfilledBy and
// FulfilledAt are set iff Status is fulfilled.
type ComponentRequest struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	ComponentID       string     `json:"component_id"`
	RequestedQuantity int        `json:"requested_quantity"`
	Status            Status     `json:"status"`
	RequestedBy       string     `json:"requested_by"`
	FulfilledBy       string     `json:"fulfilled_by,omitempty"`
	FulfilledAt       *time.Time `json:"fulfilled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// FulfillmentLog is the append-only audit record of a fulfillment. Exactly
// one row exists per fulfilled request, written in the same transaction as
// the status change.
type FulfillmentLog struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	ComponentID       string    `json:"component_id"`
	RequestID         string    `json:"request_id"`
	Quantity          int       `json:"quantity"`
	InventoryPersonID string    `json:"inventory_person_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProductRef is the product projection joined onto request listings.
type ProductRef struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// ComponentRef is the component projection joined onto request listings.
type ComponentRef struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	PartNumber string `json:"part_number,omitempty"`
}

// Summary is a request joined with its product and component projections,
// the shape both dashboards consume.
type Summary struct {
	ComponentRequest
	Product   ProductRef   `json:"product"`
	Component ComponentRef `json:"component"`
}

// FulfillResult is returned by Fulfill: the updated request plus the
// component that was scanned to close it.
type FulfillResult struct {
	Request   ComponentRequest    `json:"request"`
	Component directory.Component `json:"component"`
}

// Service defines the request ledger and fulfillment engine operations.
type Service interface {
	// Create opens a new pending request. RequestedQuantity must be a
	// positive integer; stock sufficiency is deliberately not checked.
	Create(ctx context.Context, productID, componentID string, quantity int, requestedBy string) (ComponentRequest, error)

	// Get returns a single request by id.
	Get(ctx context.Context, id string) (ComponentRequest, error)

	// ListPending returns all pending requests, oldest first, for
	// inventory-side triage.
	ListPending(ctx context.Context) ([]Summary, error)

	// ListForRequester returns the user's own requests, newest first.
	ListForRequester(ctx context.Context, userID string) ([]Summary, error)

	// Fulfill validates the scanned component against the pending request
	// and atomically transitions it to fulfilled, appending exactly one
	// FulfillmentLog row. A mismatch or a non-pending request is a Conflict.
	Fulfill(ctx context.Context, requestID, scannedComponentID, fulfilledBy string) (FulfillResult, error)

	// Cancel transitions a pending request to cancelled.
	Cancel(ctx context.Context, requestID, cancelledBy string) (ComponentRequest, error)

	// Logs returns the fulfillment log rows for a request.
	Logs(ctx context.Context, requestID string) ([]FulfillmentLog, error)
}

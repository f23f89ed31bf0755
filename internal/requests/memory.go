package requests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/ids"
	"benchtrack.org/internal/obs"
)

// InMemory implements Service with in-process concurrency safety. All
// state-changing operations run under one mutex, which gives the same
// atomicity the Postgres store gets from transactions.
type InMemory struct {
	mu   sync.RWMutex
	dir  directory.Store
	reqs map[string]*ComponentRequest
	logs []FulfillmentLog
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty ledger backed by the given directory.
func NewInMemory(dir directory.Store) *InMemory {
	return &InMemory{
		dir:  dir,
		reqs: make(map[string]*ComponentRequest),
	}
}

func (s *InMemory) Create(ctx context.Context, productID, componentID string, quantity int, requestedBy string) (ComponentRequest, error) {
	if productID == "" || componentID == "" || requestedBy == "" {
		return ComponentRequest{}, fmt.Errorf("%w: product, component and requester ids are required", ErrValidation)
	}
	if quantity <= 0 {
		return ComponentRequest{}, fmt.Errorf("%w: requested quantity must be a positive integer", ErrValidation)
	}
	if _, err := s.dir.Products().Find(ctx, productID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ComponentRequest{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return ComponentRequest{}, err
	}
	if _, err := s.dir.Components().Find(ctx, componentID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ComponentRequest{}, fmt.Errorf("%w: component %s", ErrNotFound, componentID)
		}
		return ComponentRequest{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	req := &ComponentRequest{
		ID:                ids.New(),
		ProductID:         productID,
		ComponentID:       componentID,
		RequestedQuantity: quantity,
		Status:            StatusPending,
		RequestedBy:       requestedBy,
		CreatedAt:         time.Now().UTC(),
	}
	s.reqs[req.ID] = req
	return *req, nil
}

func (s *InMemory) Get(ctx context.Context, id string) (ComponentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.reqs[id]
	if !ok {
		return ComponentRequest{}, ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *InMemory) ListPending(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	var pending []ComponentRequest
	for _, req := range s.reqs {
		if req.Status == StatusPending {
			pending = append(pending, cloneRequest(req))
		}
	}
	s.mu.RUnlock()

	// ULIDs sort by creation time: oldest first for triage.
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return s.summarize(ctx, pending), nil
}

func (s *InMemory) ListForRequester(ctx context.Context, userID string) ([]Summary, error) {
	s.mu.RLock()
	var own []ComponentRequest
	for _, req := range s.reqs {
		if req.RequestedBy == userID {
			own = append(own, cloneRequest(req))
		}
	}
	s.mu.RUnlock()

	sort.Slice(own, func(i, j int) bool { return own[i].ID > own[j].ID }) // newest first
	return s.summarize(ctx, own), nil
}

func (s *InMemory) Fulfill(ctx context.Context, requestID, scannedComponentID, fulfilledBy string) (FulfillResult, error) {
	if requestID == "" || scannedComponentID == "" || fulfilledBy == "" {
		return FulfillResult{}, fmt.Errorf("%w: request, component and fulfiller ids are required", ErrValidation)
	}
	comp, err := s.dir.Components().Find(ctx, scannedComponentID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return FulfillResult{}, fmt.Errorf("%w: component %s", ErrNotFound, scannedComponentID)
		}
		return FulfillResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.reqs[requestID]
	if !ok {
		return FulfillResult{}, fmt.Errorf("%w: request %s", ErrNotFound, requestID)
	}
	if req.Status != StatusPending {
		return FulfillResult{}, ErrNotPending
	}
	if req.ComponentID != scannedComponentID {
		return FulfillResult{}, ErrComponentMismatch
	}

	now := time.Now().UTC()
	req.Status = StatusFulfilled
	req.FulfilledBy = fulfilledBy
	req.FulfilledAt = &now
	s.logs = append(s.logs, FulfillmentLog{
		ID:                ids.New(),
		ProductID:         req.ProductID,
		ComponentID:       req.ComponentID,
		RequestID:         req.ID,
		Quantity:          req.RequestedQuantity,
		InventoryPersonID: fulfilledBy,
		CreatedAt:         now,
	})
	obs.Fulfilled()
	return FulfillResult{Request: cloneRequest(req), Component: *comp}, nil
}

func (s *InMemory) Cancel(ctx context.Context, requestID, cancelledBy string) (ComponentRequest, error) {
	if requestID == "" {
		return ComponentRequest{}, fmt.Errorf("%w: request id is required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[requestID]
	if !ok {
		return ComponentRequest{}, fmt.Errorf("%w: request %s", ErrNotFound, requestID)
	}
	if req.Status != StatusPending {
		return ComponentRequest{}, ErrNotPending
	}
	req.Status = StatusCancelled
	return cloneRequest(req), nil
}

func (s *InMemory) Logs(ctx context.Context, requestID string) ([]FulfillmentLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FulfillmentLog
	for _, l := range s.logs {
		if l.RequestID == requestID {
			out = append(out, l)
		}
	}
	return out, nil
}

// summarize joins directory projections onto the given requests. Lookups
// that fail degrade to id-only refs instead of failing the listing.
func (s *InMemory) summarize(ctx context.Context, reqs []ComponentRequest) []Summary {
	out := make([]Summary, 0, len(reqs))
	for _, req := range reqs {
		sum := Summary{
			ComponentRequest: req,
			Product:          ProductRef{ID: req.ProductID},
			Component:        ComponentRef{ID: req.ComponentID},
		}
		if p, err := s.dir.Products().Find(ctx, req.ProductID); err == nil {
			sum.Product.Name = p.Name
			sum.Product.SerialNumber = p.SerialNumber
		}
		if c, err := s.dir.Components().Find(ctx, req.ComponentID); err == nil {
			sum.Component.Name = c.Name
			sum.Component.PartNumber = c.PartNumber
		}
		out = append(out, sum)
	}
	return out
}

func cloneRequest(req *ComponentRequest) ComponentRequest {
	cp := *req
	if req.FulfilledAt != nil {
		at := *req.FulfilledAt
		cp.FulfilledAt = &at
	}
	return cp
}

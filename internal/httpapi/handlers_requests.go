package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"benchtrack.org/internal/cache"
	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/requests"
	"benchtrack.org/internal/session"
	"benchtrack.org/internal/timeline"
)

type createRequestRequest struct {
	ProductID   string `json:"product_id"`
	ComponentID string `json:"component_id"`
	Quantity    int    `json:"quantity"`
}

// handleRequestsCollection opens a new component request. Engineers only.
func (a *API) handleRequestsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	actor, ok := requireRole(w, r, directory.RoleEngineer)
	if !ok {
		return
	}

	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.deps.Requests.Create(r.Context(), req.ProductID, req.ComponentID, req.Quantity, actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a.deps.Cache.Invalidate(r.Context(), cache.PendingRequestsKey)
	a.deps.Recorder.RecordProductEvent(r.Context(), created.ProductID,
		timeline.EventComponentRequested,
		fmt.Sprintf("requested %d x component %s", created.RequestedQuantity, created.ComponentID),
		actor.ID)
	a.deps.Recorder.RecordActivity(r.Context(), actor.ID,
		"request.create", "component_request", created.ID, "opened component request")

	writeJSON(w, http.StatusCreated, created)
}

// handlePending serves the inventory triage listing, cached briefly because
// every inventory screen polls it.
func (a *API) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := requireRole(w, r, directory.RoleInventory); !ok {
		return
	}

	var list []requests.Summary
	if a.deps.Cache.Get(r.Context(), cache.PendingRequestsKey, &list) {
		writeJSON(w, http.StatusOK, map[string]any{"requests": list})
		return
	}
	list, err := a.deps.Requests.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.deps.Cache.Set(r.Context(), cache.PendingRequestsKey, list)
	writeJSON(w, http.StatusOK, map[string]any{"requests": list})
}

// handleMine serves an engineer's own requests, newest first.
func (a *API) handleMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	actor, ok := requireRole(w, r, directory.RoleEngineer)
	if !ok {
		return
	}

	list, err := a.deps.Requests.ListForRequester(r.Context(), actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": list})
}

// handleRequestResource dispatches /v1/requests/{id} and its subresources.
func (a *API) handleRequestResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/requests/"), "/")
	parts := strings.Split(rest, "/")
	if rest == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.getRequest(w, r, id)
		return
	}

	switch parts[1] {
	case "fulfill":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		a.fulfillRequest(w, r, id)
	case "cancel":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		a.cancelRequest(w, r, id)
	case "logs":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.requestLogs(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (a *API) getRequest(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	req, err := a.deps.Requests.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type fulfillRequestRequest struct {
	// Code is the raw scanned QR payload; the server resolves it.
	Code string `json:"code"`
	// ComponentID short-circuits resolution for non-scanner clients.
	ComponentID string `json:"component_id"`
}

// fulfillRequest closes a pending request against a scanned component.
// Inventory only. The scan is resolved server-side so the client never maps
// codes to component ids itself.
func (a *API) fulfillRequest(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, directory.RoleInventory)
	if !ok {
		return
	}

	var req fulfillRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	componentID := strings.TrimSpace(req.ComponentID)
	if componentID == "" {
		comp, err := a.deps.Resolver.ResolveComponent(r.Context(), req.Code)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		componentID = comp.ID
	}

	res, err := a.deps.Requests.Fulfill(r.Context(), id, componentID, actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a.deps.Cache.Invalidate(r.Context(), cache.PendingRequestsKey)
	a.deps.Recorder.RecordProductEvent(r.Context(), res.Request.ProductID,
		timeline.EventComponentFulfilled,
		fmt.Sprintf("fulfilled %d x %s", res.Request.RequestedQuantity, res.Component.Name),
		actor.ID)
	a.deps.Recorder.RecordActivity(r.Context(), actor.ID,
		"request.fulfill", "component_request", res.Request.ID, "fulfilled component request")

	writeJSON(w, http.StatusOK, res)
}

// cancelRequest withdraws a pending request. Only the requester or an admin
// may cancel.
func (a *API) cancelRequest(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := session.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	req, err := a.deps.Requests.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.RequestedBy != actor.ID && actor.Role != directory.RoleAdmin {
		writeError(w, http.StatusForbidden, "only the requester may cancel")
		return
	}

	cancelled, err := a.deps.Requests.Cancel(r.Context(), id, actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a.deps.Cache.Invalidate(r.Context(), cache.PendingRequestsKey)
	a.deps.Recorder.RecordActivity(r.Context(), actor.ID,
		"request.cancel", "component_request", cancelled.ID, "cancelled component request")

	writeJSON(w, http.StatusOK, cancelled)
}

func (a *API) requestLogs(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	logs, err := a.deps.Requests.Logs(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleProductResource serves /v1/products/{id}/events, the per-product
// timeline every dashboard shows.
func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/products/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "events" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	if _, err := a.deps.Dir.Products().Find(r.Context(), parts[0]); err != nil {
		writeDomainError(w, err)
		return
	}
	events, err := a.deps.Timeline.ProductEvents(r.Context(), parts[0])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleActivity serves the admin audit feed.
func (a *API) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := requireRole(w, r, directory.RoleAdmin); !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	list, err := a.deps.Timeline.Activities(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": list})
}

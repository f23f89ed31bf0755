package httpapi

import (
	"net/http"
	"strings"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/scan"
	"benchtrack.org/internal/session"
)

// handleProducts lists products for the request-creation pickers.
func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	list, err := a.deps.Dir.Products().List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": list})
}

// handleComponents lists stocked components.
func (a *API) handleComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	list, err := a.deps.Dir.Components().List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": list})
}

// handleUsers lists accounts. Admin only.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := requireRole(w, r, directory.RoleAdmin); !ok {
		return
	}
	list, err := a.deps.Dir.Users().List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": list})
}

type updateRoleRequest struct {
	Role directory.Role `json:"role"`
}

// handleUserResource serves /v1/users/{id}/role. Admin only.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "role" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	actor, ok := requireRole(w, r, directory.RoleAdmin)
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.deps.Dir.Users().UpdateRole(r.Context(), parts[0], req.Role); err != nil {
		writeDomainError(w, err)
		return
	}
	a.deps.Recorder.RecordActivity(r.Context(), actor.ID,
		"user.role_update", "user", parts[0], "assigned role "+string(req.Role))

	u, err := a.deps.Dir.Users().Find(r.Context(), parts[0])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type scanRequest struct {
	Code string `json:"code"`
}

// handleScan resolves a raw QR payload to the entity it identifies, so
// scanner clients never interpret codes themselves.
func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if _, ok := session.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := a.deps.Resolver.Resolve(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := map[string]any{"kind": res.Kind}
	switch res.Kind {
	case scan.KindProduct:
		out["product"] = res.Product
	case scan.KindComponent:
		out["component"] = res.Component
	case scan.KindLocation:
		out["location"] = res.Location
	}
	writeJSON(w, http.StatusOK, out)
}

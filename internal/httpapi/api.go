// Package httpapi is the thin dispatch layer over the workflow engine. Each
// route maps 1:1 to a core operation; authorization is one capability check
// per route group, and every domain error is translated at this boundary.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"benchtrack.org/internal/cache"
	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/obs"
	"benchtrack.org/internal/qrauth"
	"benchtrack.org/internal/requests"
	"benchtrack.org/internal/scan"
	"benchtrack.org/internal/timeline"
)

const serviceName = "benchtrack-api"

// ReadyProbe checks readiness, typically by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps bundles everything the HTTP layer dispatches to.
type Deps struct {
	Tokens   *qrauth.Service
	Requests requests.Service
	Dir      directory.Store
	Timeline timeline.Store
	Recorder *timeline.Recorder
	Resolver *scan.Resolver
	Cache    *cache.Cache // may be nil
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	deps       Deps

	rateBurst  int
	ratePerSec int
}

// New wires the route table.
func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		deps:       deps,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.healthz)
	a.mux.HandleFunc("/readyz", a.ready)
	a.mux.HandleFunc("/v1/info", a.info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/qr-tokens", a.handleQRTokens)
	a.mux.HandleFunc("/v1/auth/redeem", a.handleRedeem)

	a.mux.HandleFunc("/v1/requests", a.handleRequestsCollection)
	a.mux.HandleFunc("/v1/requests/pending", a.handlePending)
	a.mux.HandleFunc("/v1/requests/mine", a.handleMine)
	a.mux.HandleFunc("/v1/requests/", a.handleRequestResource)

	a.mux.HandleFunc("/v1/products", a.handleProducts)
	a.mux.HandleFunc("/v1/products/", a.handleProductResource)
	a.mux.HandleFunc("/v1/components", a.handleComponents)
	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/scan", a.handleScan)
	a.mux.HandleFunc("/v1/activity", a.handleActivity)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// --- service endpoints ---

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeDomainError maps core errors onto HTTP statuses. The QR redemption
// path deliberately gets one opaque message for every failure mode.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, qrauth.ErrInvalidOrExpired):
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, qrauth.ErrUnknownUser),
		errors.Is(err, requests.ErrNotFound),
		errors.Is(err, directory.ErrNotFound),
		errors.Is(err, scan.ErrUnresolved):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, scan.ErrNotComponent):
		writeError(w, http.StatusConflict, "scanned code is not a component")
	case errors.Is(err, requests.ErrComponentMismatch):
		writeError(w, http.StatusConflict, "scanned component does not match request")
	case errors.Is(err, requests.ErrConflict):
		writeError(w, http.StatusConflict, "request is not pending")
	case errors.Is(err, requests.ErrValidation), errors.Is(err, directory.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		obs.LogEvent("httpapi.internal_error", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

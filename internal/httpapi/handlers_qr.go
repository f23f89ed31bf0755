package httpapi

import (
	"net/http"
	"strings"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/session"
)

type issueTokenRequest struct {
	UserID string `json:"user_id"`
}

// handleQRTokens mints a single-use login token for a user. Admin only; the
// returned string is what gets rendered into the printed QR badge.
func (a *API) handleQRTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	actor, ok := requireRole(w, r, directory.RoleAdmin)
	if !ok {
		return
	}

	var req issueTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	tok, err := a.deps.Tokens.Issue(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.deps.Recorder.RecordActivity(r.Context(), actor.ID,
		"qr_token.issue", "user", req.UserID, "issued login token")

	writeJSON(w, http.StatusCreated, map[string]any{"token": tok})
}

type redeemRequest struct {
	Token string `json:"token"`
}

// handleRedeem burns a QR token and trades it for a bearer session. This is
// the only unauthenticated mutating route; the token itself is the credential.
func (a *API) handleRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := a.deps.Tokens.Redeem(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sess, err := session.Generate(u, session.DefaultTTL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.deps.Recorder.RecordActivity(r.Context(), u.ID,
		"qr_token.redeem", "user", u.ID, "logged in via QR token")

	writeJSON(w, http.StatusOK, map[string]any{
		"session_token": sess,
		"user":          u,
	})
}

package httpapi

import (
	"net/http"
	"strings"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/session"
)

// publicPaths require no session: service endpoints plus the QR redemption
// route itself, since redemption is how a session is obtained.
var publicPaths = map[string]bool{
	"/healthz":        true,
	"/readyz":         true,
	"/metrics":        true,
	"/v1/info":        true,
	"/v1/auth/redeem": true,
}

// withAuth validates the bearer session on every non-public route and places
// the authenticated principal on the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := session.ParseAndValidate(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		ctx := session.ContextWithUser(r.Context(), claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// requireRole returns the authenticated user when it holds the required
// capability, writing the HTTP error itself otherwise. Admin passes every
// check.
func requireRole(w http.ResponseWriter, r *http.Request, required directory.Role) (*directory.User, bool) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return nil, false
	}
	if !directory.CanAct(u, required) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return nil, false
	}
	return u, true
}

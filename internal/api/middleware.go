package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the authenticated caller, or nil for anonymous
// requests.
func identityFrom(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}

// Identify resolves the Authorization header. A missing header leaves
// the request anonymous; a present but invalid or revoked token fails
// with 401 before any route handler runs.
func (h *Handler) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			h.logger.WarnContext(r.Context(), "Invalid Authorization header format")
			h.respondError(w, r, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		claims, err := h.tokenManager.Validate(parts[1])
		if err != nil {
			h.logger.WarnContext(r.Context(), "Invalid or expired token", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// A signed token whose row is gone was logged out.
		issued, err := h.tokens.Exists(r.Context(), claims.ID)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to check token revocation", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Authentication check failed")
			return
		}
		if !issued {
			h.respondError(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ident := &Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			TokenID:  claims.ID,
			IsAdmin:  claims.IsAdmin,
		}
		ctx := context.WithValue(r.Context(), identityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require returns middleware enforcing the given rule for every request
// that reaches it. Ownership rules cannot be checked here; handlers
// that need the resource owner call allow themselves after loading it.
func (h *Handler) Require(rule Rule) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !h.allow(w, r, rule, "") {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow evaluates the policy and writes the denial response when the
// request is rejected. It reports whether the request may proceed.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, rule Rule, ownerID string) bool {
	switch Decide(rule, r.Method, identityFrom(r.Context()), ownerID) {
	case DenyUnauthenticated:
		h.respondError(w, r, http.StatusUnauthorized, "Authentication credentials were not provided")
		return false
	case DenyForbidden:
		h.respondError(w, r, http.StatusForbidden, "You do not have permission to perform this action")
		return false
	}
	return true
}

// ReviewCreateLimiter bounds review creation per account. It runs after
// Identify and the authentication guard, so the key is always a user
// ID; the IP fallback only matters if the middleware is ever mounted on
// an open route.
func (h *Handler) ReviewCreateLimiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if ident := identityFrom(r.Context()); ident != nil {
				return ident.UserID, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.respondError(w, r, http.StatusTooManyRequests, "Request was throttled")
		}),
	)
}

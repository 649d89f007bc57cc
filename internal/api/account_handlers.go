package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/store"
	"watchlist-service/pkg/auth"
)

// Register creates a new non-admin account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	if req.Password != req.Password2 {
		h.respondError(w, r, http.StatusBadRequest, "Password and password2 should be the same")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to hash password", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to register account")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      false,
		Created:      time.Now().UTC(),
	}

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "account with this username already exists")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create user in store", slog.String("username", req.Username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to register account")
		return
	}

	h.logger.InfoContext(ctx, "Account registered", slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusCreated, user)
}

// Login checks the credentials, issues a signed token and records it so
// logout can revoke it later.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to look up user for login", slog.String("username", req.Username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, claims, err := h.tokenManager.Generate(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to sign token", slog.String("username", user.Username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if err := h.tokens.Create(ctx, &domain.AuthToken{
		ID:        claims.ID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		h.logger.ErrorContext(ctx, "Failed to record issued token", slog.String("username", user.Username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.logger.InfoContext(ctx, "User logged in", slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusOK, domain.LoginResponse{Token: token})
}

// Logout deletes the presented token's record, so the token stops
// passing validation even before it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident := identityFrom(ctx)

	if err := h.tokens.Delete(ctx, ident.TokenID); err != nil {
		h.logger.ErrorContext(ctx, "Failed to delete token", slog.String("username", ident.Username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to log out")
		return
	}

	h.logger.InfoContext(ctx, "User logged out", slog.String("username", ident.Username))
	h.respondJSON(w, r, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

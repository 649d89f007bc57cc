package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/store"
)

// ListPlatforms returns every streaming platform with its movies.
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.platforms.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list platforms from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve platforms")
		return
	}
	h.respondJSON(w, r, http.StatusOK, platforms)
}

// CreatePlatform creates a streaming platform. Admin only.
func (h *Handler) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreatePlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	platform := &domain.Platform{
		ID:      uuid.NewString(),
		Name:    req.Name,
		About:   req.About,
		Website: req.Website,
	}
	if err := h.platforms.Create(ctx, platform); err != nil {
		if errors.Is(err, store.ErrPlatformAlreadyExists) {
			h.respondFieldErrors(w, r, map[string]string{"name": "platform with this name already exists"})
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create platform in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create platform")
		return
	}

	h.logger.InfoContext(ctx, "Platform created", slog.String("platformID", platform.ID), slog.String("name", platform.Name))
	h.respondJSON(w, r, http.StatusCreated, platform)
}

// GetPlatform returns a single platform with its movies.
func (h *Handler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	platform, err := h.platforms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPlatformNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to get platform from store", slog.String("platformID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve platform")
		return
	}
	h.respondJSON(w, r, http.StatusOK, platform)
}

// UpdatePlatform replaces every writable field of a platform. Admin only.
func (h *Handler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	platform, err := h.platforms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrPlatformNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get platform from store", slog.String("platformID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve platform")
		return
	}

	var req domain.UpdatePlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	platform.Name = req.Name
	platform.About = req.About
	platform.Website = req.Website

	if err := h.platforms.Update(ctx, platform); err != nil {
		if errors.Is(err, store.ErrPlatformAlreadyExists) {
			h.respondFieldErrors(w, r, map[string]string{"name": "platform with this name already exists"})
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update platform in store", slog.String("platformID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update platform")
		return
	}
	h.respondJSON(w, r, http.StatusOK, platform)
}

// DeletePlatform removes a platform, its movies and their reviews. Admin only.
func (h *Handler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.platforms.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrPlatformNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to delete platform from store", slog.String("platformID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete platform")
		return
	}
	h.logger.InfoContext(r.Context(), "Platform deleted", slog.String("platformID", id))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/store"
)

// ListMovieReviews returns the reviews of one movie in creation order,
// optionally filtered by reviewer username and active flag.
func (h *Handler) ListMovieReviews(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["id"]
	queryParams := r.URL.Query()

	params := store.ReviewListParams{
		Username: queryParams.Get("review_user__username"),
	}
	if raw := queryParams.Get("active"); raw != "" {
		active := raw == "true" || raw == "True"
		params.Active = &active
	}

	reviews, err := h.reviews.ListByMovie(r.Context(), movieID, params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list reviews from store", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviews)
}

// CreateReview records a review for a movie by the authenticated user
// and folds the rating into the movie aggregate.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["id"]
	ident := identityFrom(ctx)

	var req domain.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:          uuid.NewString(),
		ReviewUser:  ident.Username,
		UserID:      ident.UserID,
		Rating:      req.Rating,
		Description: req.Description,
		MovieID:     movieID,
		Active:      true,
		Created:     now,
		Updated:     now,
	}

	if err := h.reviews.CreateForMovie(ctx, movieID, review); err != nil {
		switch {
		case errors.Is(err, store.ErrMovieNotFound):
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
		case errors.Is(err, store.ErrDuplicateReview):
			h.respondError(w, r, http.StatusBadRequest, "You have already reviewed this movie")
		default:
			h.logger.ErrorContext(ctx, "Failed to create review in store", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to create review")
		}
		return
	}

	h.logger.InfoContext(ctx, "Review created", slog.String("reviewID", review.ID), slog.String("movieID", movieID), slog.String("username", ident.Username))
	h.respondJSON(w, r, http.StatusCreated, review)
}

// GetReview returns a single review.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	review, err := h.reviews.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to get review from store", slog.String("reviewID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

// UpdateReview edits rating, description or active on a review. Only
// the owner or an admin may write. The movie aggregate is left alone.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	review, err := h.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review from store", slog.String("reviewID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
		return
	}

	if !h.allow(w, r, RuleOwnerOrReadOnly, review.UserID) {
		return
	}

	var req domain.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Description != nil {
		review.Description = *req.Description
	}
	if req.Active != nil {
		review.Active = *req.Active
	}

	if err := h.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update review in store", slog.String("reviewID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

// DeleteReview removes a review. Only the owner or an admin may delete.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	review, err := h.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review from store", slog.String("reviewID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
		return
	}

	if !h.allow(w, r, RuleOwnerOrReadOnly, review.UserID) {
		return
	}

	if err := h.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Not Found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete review from store", slog.String("reviewID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete review")
		return
	}
	h.logger.InfoContext(ctx, "Review deleted", slog.String("reviewID", id))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

// ListReviewsByUser returns every review written by one username, in
// insertion order. Admin only.
func (h *Handler) ListReviewsByUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	reviews, err := h.reviews.ListByUsername(r.Context(), username)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list reviews by user from store", slog.String("username", username), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviews)
}

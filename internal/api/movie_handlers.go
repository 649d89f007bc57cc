package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"watchlist-service/internal/domain"
	"watchlist-service/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 40
)

// paginatedResponse is the envelope for paginated listings.
type paginatedResponse struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// ListMovies returns a page of movies. The size parameter overrides the
// page size up to a cap, and search matches a case-insensitive
// substring of the title or the platform name.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	page, _ := strconv.Atoi(queryParams.Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(queryParams.Get("size"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := store.MovieListParams{
		Page:     page,
		PageSize: pageSize,
		Search:   queryParams.Get("search"),
	}

	movies, totalCount, err := h.movies.List(r.Context(), params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list movies from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movies")
		return
	}

	next, previous := paginationLinks(r, page, pageSize, totalCount)
	h.respondJSON(w, r, http.StatusOK, paginatedResponse{
		Count:    totalCount,
		Next:     next,
		Previous: previous,
		Results:  movies,
	})
}

// paginationLinks builds the next/previous page URLs for a listing, nil
// when the respective page does not exist.
func paginationLinks(r *http.Request, page, pageSize, totalCount int) (next, previous *string) {
	lastPage := (totalCount + pageSize - 1) / pageSize
	if page < lastPage {
		u := pageURL(r, page+1)
		next = &u
	}
	if page > 1 && totalCount > 0 {
		u := pageURL(r, page-1)
		previous = &u
	}
	return next, previous
}

func pageURL(r *http.Request, page int) string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// GetMovie returns a single movie with platform name and reviews.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, err := h.movies.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to get movie from store", slog.String("movieID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movie")
		return
	}
	h.respondJSON(w, r, http.StatusOK, movie)
}

// UpdateMovie applies a partial update to a movie. Admin only. The
// aggregate fields are never writable here.
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	movie, err := h.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get movie from store", slog.String("movieID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movie")
		return
	}

	var req domain.UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(ctx, req); err != nil {
		h.respondValidationError(w, r, err)
		return
	}

	if req.Title != nil {
		movie.Title = *req.Title
	}
	if req.Storyline != nil {
		movie.Storyline = *req.Storyline
	}
	if req.PlatformID != nil {
		if _, err := h.platforms.GetByID(ctx, *req.PlatformID); err != nil {
			if errors.Is(err, store.ErrPlatformNotFound) {
				h.respondFieldErrors(w, r, map[string]string{"platform_id": "platform not found"})
				return
			}
			h.logger.ErrorContext(ctx, "Failed to look up platform for movie update", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update movie")
			return
		}
		movie.PlatformID = *req.PlatformID
	}
	if req.Active != nil {
		movie.Active = *req.Active
	}

	if movie.Title == movie.Storyline {
		h.respondFieldErrors(w, r, map[string]string{"non_field_errors": "Movie title must be different from movie storyline"})
		return
	}

	if err := h.movies.Update(ctx, movie); err != nil {
		if errors.Is(err, store.ErrMovieAlreadyExists) {
			h.respondFieldErrors(w, r, map[string]string{"non_field_errors": "movie with this title, storyline and platform already exists"})
			return
		}
		h.logger.ErrorContext(ctx, "Failed to update movie in store", slog.String("movieID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update movie")
		return
	}

	// Re-read so the platform name reflects a platform change.
	updated, err := h.movies.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to reload movie after update", slog.String("movieID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movie")
		return
	}
	h.respondJSON(w, r, http.StatusOK, updated)
}

// DeleteMovie removes a movie and its reviews. Admin only.
func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.movies.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to delete movie from store", slog.String("movieID", id), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete movie")
		return
	}
	h.logger.InfoContext(r.Context(), "Movie deleted", slog.String("movieID", id))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

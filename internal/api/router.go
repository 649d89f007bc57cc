package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RouterConfig carries the router-level tunables.
type RouterConfig struct {
	ReviewRateLimit  int
	ReviewRateWindow time.Duration
}

// NewRouter builds the HTTP routing table. Every route is registered
// with a trailing slash and StrictSlash redirects the bare form.
func NewRouter(h *Handler, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(h.Identify)
	router.NotFoundHandler = http.HandlerFunc(h.notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)

	// Catalog: open reads, admin writes.
	platforms := router.PathPrefix("/platforms").Subrouter()
	platforms.Use(h.Require(RuleAdminOrReadOnly))
	platforms.HandleFunc("/", h.ListPlatforms).Methods(http.MethodGet, http.MethodHead)
	platforms.HandleFunc("/", h.CreatePlatform).Methods(http.MethodPost)
	platforms.HandleFunc("/{id}/", h.GetPlatform).Methods(http.MethodGet, http.MethodHead)
	platforms.HandleFunc("/{id}/", h.UpdatePlatform).Methods(http.MethodPut)
	platforms.HandleFunc("/{id}/", h.DeletePlatform).Methods(http.MethodDelete)

	// Review routes nested under a movie, registered before the catalog
	// movie routes so the longer paths match first.
	router.HandleFunc("/movies/{id}/reviews/", h.ListMovieReviews).Methods(http.MethodGet, http.MethodHead)

	reviewCreate := router.PathPrefix("/movies/{id}/review-create").Subrouter()
	reviewCreate.Use(h.Require(RuleAuthenticated), h.ReviewCreateLimiter(cfg.ReviewRateLimit, cfg.ReviewRateWindow))
	reviewCreate.HandleFunc("/", h.CreateReview).Methods(http.MethodPost)

	// There is no movie-create route: movies are provisioned out of
	// band, so POST /movies/ answers 405.
	movies := router.PathPrefix("/movies").Subrouter()
	movies.Use(h.Require(RuleAdminOrReadOnly))
	movies.HandleFunc("/", h.ListMovies).Methods(http.MethodGet, http.MethodHead)
	movies.HandleFunc("/{id}/", h.GetMovie).Methods(http.MethodGet, http.MethodHead)
	movies.HandleFunc("/{id}/", h.UpdateMovie).Methods(http.MethodPut)
	movies.HandleFunc("/{id}/", h.DeleteMovie).Methods(http.MethodDelete)

	reviews := router.PathPrefix("/reviews").Subrouter()
	reviews.Handle("/by-user/{username}/", h.Require(RuleAdminOnly)(http.HandlerFunc(h.ListReviewsByUser))).Methods(http.MethodGet, http.MethodHead)
	reviews.HandleFunc("/{id}/", h.GetReview).Methods(http.MethodGet, http.MethodHead)
	reviews.HandleFunc("/{id}/", h.UpdateReview).Methods(http.MethodPut)
	reviews.HandleFunc("/{id}/", h.DeleteReview).Methods(http.MethodDelete)

	account := router.PathPrefix("/account").Subrouter()
	account.HandleFunc("/register/", h.Register).Methods(http.MethodPost)
	account.HandleFunc("/login/", h.Login).Methods(http.MethodPost)
	account.Handle("/logout/", h.Require(RuleAuthenticated)(http.HandlerFunc(h.Logout))).Methods(http.MethodPost)

	return router
}

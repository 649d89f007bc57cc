package store

import (
	"context"
	"errors"

	"watchlist-service/internal/domain"
)

var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrMovieAlreadyExists = errors.New("movie with this title, storyline and platform already exists")
)

// MovieListParams controls pagination and search for movie listings.
// Search matches a case-insensitive substring of the title or the
// platform name.
type MovieListParams struct {
	Page     int
	PageSize int
	Search   string
}

// MovieStore persists movies. GetByID and List return movies with the
// platform name and reviews attached. Create exists for out-of-band
// provisioning; the public API has no movie-create endpoint. Delete
// cascades to the movie's reviews.
type MovieStore interface {
	Create(ctx context.Context, movie *domain.Movie) error
	GetByID(ctx context.Context, id string) (*domain.Movie, error)
	List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error)
	Update(ctx context.Context, movie *domain.Movie) error
	Delete(ctx context.Context, id string) error
}

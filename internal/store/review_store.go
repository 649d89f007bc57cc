package store

import (
	"context"
	"errors"

	"watchlist-service/internal/domain"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("user has already reviewed this movie")
)

// ReviewListParams filters a movie's review listing. Both filters are
// exact matches; a nil Active means no active filter.
type ReviewListParams struct {
	Username string
	Active   *bool
}

// ReviewStore persists reviews.
//
// CreateForMovie is the one path allowed to touch a movie's aggregate
// fields. It runs as a single atomic step: verify the movie exists,
// reject a second review from the same account, fold the rating into
// the movie's running average, bump num_ratings, and insert the review.
// Two concurrent creates for the same (movie, account) pair must not
// both succeed.
//
// Update edits the review row only: it neither recomputes the movie
// aggregate nor refreshes the updated timestamp.
type ReviewStore interface {
	CreateForMovie(ctx context.Context, movieID string, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, id string) error
	ListByMovie(ctx context.Context, movieID string, params ReviewListParams) ([]*domain.Review, error)
	ListByUsername(ctx context.Context, username string) ([]*domain.Review, error)
}

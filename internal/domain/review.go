package domain

import (
	"time"
)

// Review is one account's rating and text for one movie. At most one
// review exists per (movie, account) pair; the stores enforce that at
// creation time.
type Review struct {
	ID          string    `json:"id" db:"id"` // UUID
	ReviewUser  string    `json:"review_user" db:"review_user"` // reviewer's username, joined in by the store
	UserID      string    `json:"-" db:"user_id"`
	Rating      int       `json:"rating" db:"rating"` // 1-5
	Description string    `json:"description" db:"description"`
	MovieID     string    `json:"movie_id" db:"movie_id"`
	Active      bool      `json:"active" db:"active"`
	Created     time.Time `json:"created" db:"created"`
	Updated     time.Time `json:"updated" db:"updated"` // set at creation, deliberately not refreshed on edit
}

// CreateReviewRequest is the body for reviewing a movie. The reviewer is
// always the authenticated caller, never taken from the payload.
type CreateReviewRequest struct {
	Rating      int    `json:"rating" validate:"required,gte=1,lte=5"`
	Description string `json:"description" validate:"max=200"`
}

// UpdateReviewRequest carries a partial review edit. Editing a rating
// does not recompute the owning movie's aggregate.
type UpdateReviewRequest struct {
	Rating      *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=200"`
	Active      *bool   `json:"active,omitempty"`
}

// NextAverage folds a new rating into a movie's running average. The
// first rating becomes the average outright; every later rating moves
// the average to the midpoint of the current average and the incoming
// rating. That is not a true mean over all ratings, but clients depend
// on this exact sequence, so it must not be changed to one.
func NextAverage(current float64, numRatings int, rating int) float64 {
	if numRatings == 0 {
		return float64(rating)
	}
	return (current + float64(rating)) / 2
}

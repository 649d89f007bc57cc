package domain

import (
	"time"
)

// Movie is a catalogued title with an aggregate rating derived from its
// reviews. AvgRating and NumRatings are written only by the review-create
// path; nothing else may mutate them.
type Movie struct {
	ID         string    `json:"id" db:"id"` // UUID
	Title      string    `json:"title" db:"title"`
	Storyline  string    `json:"storyline" db:"storyline"`
	PlatformID string    `json:"platform_id" db:"platform_id"`
	Platform   string    `json:"platform,omitempty" db:"platform"` // platform name, joined in by the store
	Active     bool      `json:"active" db:"active"`
	AvgRating  float64   `json:"avg_rating" db:"avg_rating"`
	NumRatings int       `json:"num_ratings" db:"num_ratings"`
	Created    time.Time `json:"created" db:"created"`
	Reviews    []*Review `json:"reviews" db:"-"`
}

// UpdateMovieRequest carries a partial update: nil fields are left as-is.
// There is no create counterpart; movies are provisioned out of band.
type UpdateMovieRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=2,max=50"`
	Storyline  *string `json:"storyline,omitempty" validate:"omitempty,max=200"`
	PlatformID *string `json:"platform_id,omitempty" validate:"omitempty,uuid"`
	Active     *bool   `json:"active,omitempty"`
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"watchlist-service/internal/domain"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on a specific named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

const movieColumns = `m.id, m.title, m.storyline, m.platform_id, p.name AS platform,
       m.active, m.avg_rating, m.num_ratings, m.created`

const movieBaseQuery = `SELECT ` + movieColumns + `
  FROM movies m
  JOIN platforms p ON p.id = m.platform_id`

const reviewColumns = `r.id, u.username AS review_user, r.user_id, r.rating,
       r.description, r.movie_id, r.active, r.created, r.updated`

const reviewBaseQuery = `SELECT ` + reviewColumns + `
  FROM reviews r
  JOIN users u ON u.id = r.user_id`

// attachReviews loads the reviews for every movie in movies, ordered by
// creation time, and fills each movie's Reviews slice.
func attachReviews(ctx context.Context, db *sqlx.DB, movies []*domain.Movie) error {
	for _, m := range movies {
		m.Reviews = []*domain.Review{}
	}
	if len(movies) == 0 {
		return nil
	}

	ids := make([]string, 0, len(movies))
	byID := make(map[string]*domain.Movie, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}

	query, args, err := sqlx.In(reviewBaseQuery+` WHERE r.movie_id IN (?) ORDER BY r.created ASC`, ids)
	if err != nil {
		return fmt.Errorf("failed to build reviews query: %w", err)
	}
	query = db.Rebind(query)

	var reviews []*domain.Review
	if err := db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}
	for _, r := range reviews {
		if m, ok := byID[r.MovieID]; ok {
			m.Reviews = append(m.Reviews, r)
		}
	}
	return nil
}

// attachMovies loads the movies for every platform in platforms and
// fills each platform's Movies slice, reviews included.
func attachMovies(ctx context.Context, db *sqlx.DB, platforms []*domain.Platform) error {
	for _, p := range platforms {
		p.Movies = []*domain.Movie{}
	}
	if len(platforms) == 0 {
		return nil
	}

	ids := make([]string, 0, len(platforms))
	byID := make(map[string]*domain.Platform, len(platforms))
	for _, p := range platforms {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	query, args, err := sqlx.In(movieBaseQuery+` WHERE m.platform_id IN (?) ORDER BY m.created ASC`, ids)
	if err != nil {
		return fmt.Errorf("failed to build movies query: %w", err)
	}
	query = db.Rebind(query)

	var movies []*domain.Movie
	if err := db.SelectContext(ctx, &movies, query, args...); err != nil {
		return fmt.Errorf("failed to load movies: %w", err)
	}
	if err := attachReviews(ctx, db, movies); err != nil {
		return err
	}
	for _, m := range movies {
		if p, ok := byID[m.PlatformID]; ok {
			p.Movies = append(p.Movies, m)
		}
	}
	return nil
}

var (
	_ PlatformStore = (*PostgresPlatformStore)(nil)
	_ MovieStore    = (*PostgresMovieStore)(nil)
	_ ReviewStore   = (*PostgresReviewStore)(nil)
	_ UserStore     = (*PostgresUserStore)(nil)
	_ TokenStore    = (*PostgresTokenStore)(nil)
)

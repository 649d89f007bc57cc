package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"watchlist-service/internal/domain"
)

// PostgresReviewStore implements ReviewStore for PostgreSQL.
type PostgresReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgresReviewStore.
func NewPostgresReviewStore(db *sqlx.DB, logger *slog.Logger) (*PostgresReviewStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresReviewStore{db: db, logger: logger}, nil
}

// CreateForMovie inserts a review and folds its rating into the movie's
// aggregate inside one transaction. The movie row is locked for the
// duration so concurrent creates for the same movie serialize, and the
// uq_movie_user_review constraint backs the duplicate check for the
// case where the lock is not enough.
func (s *PostgresReviewStore) CreateForMovie(ctx context.Context, movieID string, review *domain.Review) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	var movie struct {
		AvgRating  float64 `db:"avg_rating"`
		NumRatings int     `db:"num_ratings"`
	}
	err = tx.GetContext(ctx, &movie, `SELECT avg_rating, num_ratings FROM movies WHERE id = $1 FOR UPDATE`, movieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Review create for missing movie", slog.String("movieID", movieID))
			return ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to lock movie row for review create", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to lock movie for review create: %w", err)
	}

	var alreadyReviewed bool
	err = tx.GetContext(ctx, &alreadyReviewed,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE movie_id = $1 AND user_id = $2)`, movieID, review.UserID)
	if err != nil {
		return fmt.Errorf("failed to check for existing review: %w", err)
	}
	if alreadyReviewed {
		s.logger.WarnContext(ctx, "User has already reviewed this movie", slog.String("movieID", movieID), slog.String("userID", review.UserID))
		return ErrDuplicateReview
	}

	avgRating := domain.NextAverage(movie.AvgRating, movie.NumRatings, review.Rating)
	_, err = tx.ExecContext(ctx, `UPDATE movies SET avg_rating = $1, num_ratings = $2 WHERE id = $3`,
		avgRating, movie.NumRatings+1, movieID)
	if err != nil {
		return fmt.Errorf("failed to update movie aggregate: %w", err)
	}

	review.MovieID = movieID
	review.Created = time.Now().UTC()
	review.Updated = review.Created

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, rating, description, movie_id, active, created, updated)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		review.ID, review.UserID, review.Rating, review.Description,
		review.MovieID, review.Active, review.Created, review.Updated,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_movie_user_review") {
			return ErrDuplicateReview
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created in DB",
		slog.String("reviewID", review.ID), slog.String("movieID", movieID), slog.Float64("avgRating", avgRating))
	return nil
}

// GetByID finds a review by its ID, reviewer username attached.
func (s *PostgresReviewStore) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := reviewBaseQuery + ` WHERE r.id = $1`
	var review domain.Review

	err := s.db.GetContext(ctx, &review, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Review not found by ID in DB", slog.String("reviewID", id))
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review by ID from DB", slog.String("reviewID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return &review, nil
}

// Update edits rating, description and active. The updated column keeps
// its creation value and the movie aggregate is left alone.
func (s *PostgresReviewStore) Update(ctx context.Context, review *domain.Review) error {
	query := `UPDATE reviews SET rating = $1, description = $2, active = $3 WHERE id = $4`

	s.logger.DebugContext(ctx, "Executing Update review query", slog.String("reviewID", review.ID))
	result, err := s.db.ExecContext(ctx, query, review.Rating, review.Description, review.Active, review.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in DB", slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// Delete removes a review. The movie aggregate is not recomputed.
func (s *PostgresReviewStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	s.logger.DebugContext(ctx, "Executing Delete review query", slog.String("reviewID", id))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB", slog.String("reviewID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListByMovie returns a movie's reviews ordered by creation time,
// optionally filtered by reviewer username and active flag.
func (s *PostgresReviewStore) ListByMovie(ctx context.Context, movieID string, params ReviewListParams) ([]*domain.Review, error) {
	query := reviewBaseQuery + ` WHERE r.movie_id = $1`
	args := []interface{}{movieID}

	if params.Username != "" {
		query += fmt.Sprintf(" AND u.username = $%d", len(args)+1)
		args = append(args, params.Username)
	}
	if params.Active != nil {
		query += fmt.Sprintf(" AND r.active = $%d", len(args)+1)
		args = append(args, *params.Active)
	}
	query += ` ORDER BY r.created ASC`

	reviews := []*domain.Review{}
	if err := s.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews by movieID from DB", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews by movieID: %w", err)
	}
	return reviews, nil
}

// ListByUsername returns every review authored by the named account,
// ordered by review ID.
func (s *PostgresReviewStore) ListByUsername(ctx context.Context, username string) ([]*domain.Review, error) {
	query := reviewBaseQuery + ` WHERE u.username = $1 ORDER BY r.id ASC`

	reviews := []*domain.Review{}
	if err := s.db.SelectContext(ctx, &reviews, query, username); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews by username from DB", slog.String("username", username), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews by username: %w", err)
	}
	return reviews, nil
}

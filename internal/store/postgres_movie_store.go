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

// PostgresMovieStore implements MovieStore for PostgreSQL.
type PostgresMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresMovieStore creates a new PostgresMovieStore.
func NewPostgresMovieStore(db *sqlx.DB, logger *slog.Logger) (*PostgresMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresMovieStore{db: db, logger: logger}, nil
}

// Create inserts a new movie. Aggregate fields start at zero; only the
// review-create path moves them afterwards.
func (s *PostgresMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	query := `INSERT INTO movies (id, title, storyline, platform_id, active, avg_rating, num_ratings, created)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	movie.Created = time.Now().UTC()
	movie.AvgRating = 0
	movie.NumRatings = 0

	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	_, err := s.db.ExecContext(ctx, query,
		movie.ID, movie.Title, movie.Storyline, movie.PlatformID,
		movie.Active, movie.AvgRating, movie.NumRatings, movie.Created,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_movie_identity") {
			s.logger.WarnContext(ctx, "Movie already exists (unique constraint violation in DB)", slog.String("title", movie.Title))
			return ErrMovieAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create movie: %w", err)
	}
	movie.Reviews = []*domain.Review{}
	return nil
}

// GetByID finds a movie by its ID, with platform name and reviews attached.
func (s *PostgresMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	query := movieBaseQuery + ` WHERE m.id = $1`
	var movie domain.Movie

	err := s.db.GetContext(ctx, &movie, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Movie not found by ID in DB", slog.String("movieID", id))
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}

	if err := attachReviews(ctx, s.db, []*domain.Movie{&movie}); err != nil {
		return nil, err
	}
	return &movie, nil
}

// List returns a page of movies plus the total match count. Search
// matches a case-insensitive substring of the title or platform name.
func (s *PostgresMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	countQuery := `SELECT COUNT(*) FROM movies m JOIN platforms p ON p.id = m.platform_id`
	selectQuery := movieBaseQuery

	var args []interface{}
	if params.Search != "" {
		cond := ` WHERE m.title ILIKE $1 OR p.name ILIKE $1`
		countQuery += cond
		selectQuery += cond
		args = append(args, "%"+params.Search+"%")
	}

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count movies in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Movie{}, 0, nil
	}

	selectQuery += fmt.Sprintf(" ORDER BY m.created ASC, m.id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	movies := []*domain.Movie{}
	if err := s.db.SelectContext(ctx, &movies, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	if err := attachReviews(ctx, s.db, movies); err != nil {
		return nil, 0, err
	}
	return movies, totalCount, nil
}

// Update replaces the writable fields of a movie. Aggregate fields are
// deliberately not part of the statement.
func (s *PostgresMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	query := `UPDATE movies SET title = $1, storyline = $2, platform_id = $3, active = $4 WHERE id = $5`

	s.logger.DebugContext(ctx, "Executing Update movie query", slog.String("movieID", movie.ID))
	result, err := s.db.ExecContext(ctx, query, movie.Title, movie.Storyline, movie.PlatformID, movie.Active, movie.ID)
	if err != nil {
		if isUniqueViolation(err, "uq_movie_identity") {
			return ErrMovieAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to update movie in DB", slog.String("movieID", movie.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update movie: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Delete removes a movie. The schema cascades the delete to its reviews.
func (s *PostgresMovieStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM movies WHERE id = $1`

	s.logger.DebugContext(ctx, "Executing Delete movie query", slog.String("movieID", id))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete movie from DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrMovieNotFound
	}
	s.logger.InfoContext(ctx, "Movie deleted from DB", slog.String("movieID", id))
	return nil
}

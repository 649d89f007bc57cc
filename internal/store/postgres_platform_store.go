package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"watchlist-service/internal/domain"
)

// PostgresPlatformStore implements PlatformStore for PostgreSQL.
type PostgresPlatformStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresPlatformStore creates a new PostgresPlatformStore.
func NewPostgresPlatformStore(db *sqlx.DB, logger *slog.Logger) (*PostgresPlatformStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresPlatformStore{db: db, logger: logger}, nil
}

// Create inserts a new platform.
func (s *PostgresPlatformStore) Create(ctx context.Context, platform *domain.Platform) error {
	query := `INSERT INTO platforms (id, name, about, website) VALUES ($1, $2, $3, $4)`

	s.logger.DebugContext(ctx, "Executing Create platform query", slog.String("platformID", platform.ID), slog.String("name", platform.Name))
	_, err := s.db.ExecContext(ctx, query, platform.ID, platform.Name, platform.About, platform.Website)
	if err != nil {
		if isUniqueViolation(err, "uq_platform_name") {
			s.logger.WarnContext(ctx, "Platform name already taken", slog.String("name", platform.Name))
			return ErrPlatformAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create platform in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create platform: %w", err)
	}
	platform.Movies = []*domain.Movie{}
	return nil
}

// GetByID finds a platform by its ID, with its movies attached.
func (s *PostgresPlatformStore) GetByID(ctx context.Context, id string) (*domain.Platform, error) {
	query := `SELECT id, name, about, website FROM platforms WHERE id = $1`
	var platform domain.Platform

	err := s.db.GetContext(ctx, &platform, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.WarnContext(ctx, "Platform not found by ID in DB", slog.String("platformID", id))
			return nil, ErrPlatformNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get platform by ID from DB", slog.String("platformID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get platform by ID: %w", err)
	}

	if err := attachMovies(ctx, s.db, []*domain.Platform{&platform}); err != nil {
		return nil, err
	}
	return &platform, nil
}

// List returns every platform ordered by name, movies attached.
func (s *PostgresPlatformStore) List(ctx context.Context) ([]*domain.Platform, error) {
	query := `SELECT id, name, about, website FROM platforms ORDER BY name ASC`

	platforms := []*domain.Platform{}
	if err := s.db.SelectContext(ctx, &platforms, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list platforms from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	if err := attachMovies(ctx, s.db, platforms); err != nil {
		return nil, err
	}
	return platforms, nil
}

// Update replaces the writable fields of a platform.
func (s *PostgresPlatformStore) Update(ctx context.Context, platform *domain.Platform) error {
	query := `UPDATE platforms SET name = $1, about = $2, website = $3 WHERE id = $4`

	s.logger.DebugContext(ctx, "Executing Update platform query", slog.String("platformID", platform.ID))
	result, err := s.db.ExecContext(ctx, query, platform.Name, platform.About, platform.Website, platform.ID)
	if err != nil {
		if isUniqueViolation(err, "uq_platform_name") {
			return ErrPlatformAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to update platform in DB", slog.String("platformID", platform.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update platform: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrPlatformNotFound
	}
	return nil
}

// Delete removes a platform. The schema cascades the delete to the
// platform's movies and their reviews.
func (s *PostgresPlatformStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM platforms WHERE id = $1`

	s.logger.DebugContext(ctx, "Executing Delete platform query", slog.String("platformID", id))
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete platform from DB", slog.String("platformID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete platform: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrPlatformNotFound
	}
	s.logger.InfoContext(ctx, "Platform deleted from DB", slog.String("platformID", id))
	return nil
}

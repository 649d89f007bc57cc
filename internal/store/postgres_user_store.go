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

// PostgresUserStore implements UserStore for PostgreSQL.
type PostgresUserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgresUserStore.
func NewPostgresUserStore(db *sqlx.DB, logger *slog.Logger) (*PostgresUserStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresUserStore{db: db, logger: logger}, nil
}

// Create inserts a new account.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, is_admin, created)
              VALUES ($1, $2, $3, $4, $5, $6)`

	s.logger.DebugContext(ctx, "Executing Create user query", slog.String("userID", user.ID), slog.String("username", user.Username))
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.IsAdmin, user.Created)
	if err != nil {
		if isUniqueViolation(err, "uq_user_username") {
			s.logger.WarnContext(ctx, "Username already taken", slog.String("username", user.Username))
			return ErrUserAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create user in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID finds an account by its ID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, username, email, password_hash, is_admin, created FROM users WHERE id = $1`
	var user domain.User

	err := s.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get user by ID from DB", slog.String("userID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// GetByUsername finds an account by its username.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, email, password_hash, is_admin, created FROM users WHERE username = $1`
	var user domain.User

	err := s.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get user by username from DB", slog.String("username", username), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// PostgresTokenStore implements TokenStore for PostgreSQL.
type PostgresTokenStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresTokenStore creates a new PostgresTokenStore.
func NewPostgresTokenStore(db *sqlx.DB, logger *slog.Logger) (*PostgresTokenStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresTokenStore{db: db, logger: logger}, nil
}

// Create records an issued token.
func (s *PostgresTokenStore) Create(ctx context.Context, token *domain.AuthToken) error {
	query := `INSERT INTO auth_tokens (id, user_id, expires_at) VALUES ($1, $2, $3)`

	if _, err := s.db.ExecContext(ctx, query, token.ID, token.UserID, token.ExpiresAt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record auth token in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to record auth token: %w", err)
	}
	return nil
}

// Exists reports whether the token has been issued and not revoked.
func (s *PostgresTokenStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM auth_tokens WHERE id = $1)`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to check auth token in DB", slog.String("error", err.Error()))
		return false, fmt.Errorf("failed to check auth token: %w", err)
	}
	return exists, nil
}

// Delete revokes a token.
func (s *PostgresTokenStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE id = $1`, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete auth token from DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}

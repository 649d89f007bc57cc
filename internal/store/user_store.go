package store

import (
	"context"
	"errors"

	"watchlist-service/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("account with this username already exists")
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenStore records issued auth tokens by their JWT ID. A token whose
// row is gone is treated as revoked regardless of its expiry.
type TokenStore interface {
	Create(ctx context.Context, token *domain.AuthToken) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

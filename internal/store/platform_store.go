package store

import (
	"context"
	"errors"

	"watchlist-service/internal/domain"
)

var (
	ErrPlatformNotFound      = errors.New("platform not found")
	ErrPlatformAlreadyExists = errors.New("platform with this name already exists")
)

// PlatformStore persists streaming platforms. Get and List return each
// platform with its movies attached. Delete cascades to the platform's
// movies and, through them, their reviews.
type PlatformStore interface {
	Create(ctx context.Context, platform *domain.Platform) error
	GetByID(ctx context.Context, id string) (*domain.Platform, error)
	List(ctx context.Context) ([]*domain.Platform, error)
	Update(ctx context.Context, platform *domain.Platform) error
	Delete(ctx context.Context, id string) error
}

// Package store provides persistence for saved packs.
package store

import (
	"context"

	"github.com/adithyag/studytoolsgpt/internal/domain"
)

// PackRepository defines the interface for persisting saved packs.
type PackRepository interface {
	// ListPacks returns all saved packs, newest first.
	ListPacks(ctx context.Context) ([]*domain.Pack, error)

	// GetPack retrieves a pack by ID. Returns nil, nil when absent.
	GetPack(ctx context.Context, id string) (*domain.Pack, error)

	// SavePack creates or updates a pack record.
	SavePack(ctx context.Context, pack *domain.Pack) error

	// DeletePack removes a pack. Deleting an absent pack is not an error.
	DeletePack(ctx context.Context, id string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error
}

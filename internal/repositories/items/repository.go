// Package items persists items keyed by their slug
package items

//go:generate mockgen -destination=mock/mock_repository.go -package=itemsmock github.com/KirkDiggler/rpg-compendium/internal/repositories/items Repository

import (
	"context"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

// Repository defines the interface for item persistence
type Repository interface {
	// Upsert creates the item with input.Item.Slug or replaces the stored
	// one. Property codes and random tables are replaced as a whole.
	// Returns errors.InvalidArgument for a nil item or an empty slug
	// Returns errors.Aborted when optimistic retries are exhausted
	// Returns errors.Internal for storage failures
	Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error)

	// GetBySlug retrieves an item by slug
	// Returns errors.NotFound if no item has that slug
	// Returns errors.Internal for storage failures
	GetBySlug(ctx context.Context, input GetBySlugInput) (*GetBySlugOutput, error)

	// List retrieves every stored item ordered by slug
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// UpsertInput defines the input for upserting an item
type UpsertInput struct {
	Item *compendium.ParsedItem
}

// UpsertOutput defines the output for upserting an item
type UpsertOutput struct {
	Item    *compendium.Item
	Created bool
}

// GetBySlugInput defines the input for getting an item
type GetBySlugInput struct {
	Slug string
}

// GetBySlugOutput defines the output for getting an item
type GetBySlugOutput struct {
	Item *compendium.Item
}

// ListInput defines the input for listing items
type ListInput struct{}

// ListOutput defines the output for listing items
type ListOutput struct {
	Items []*compendium.Item
}

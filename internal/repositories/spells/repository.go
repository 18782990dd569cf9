// Package spells persists spells keyed by their exact name
package spells

//go:generate mockgen -destination=mock/mock_repository.go -package=spellsmock github.com/KirkDiggler/rpg-compendium/internal/repositories/spells Repository

import (
	"context"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

// Repository defines the interface for spell persistence
type Repository interface {
	// Upsert creates the spell named input.Spell.Name or replaces the stored
	// one. Scalars are overwritten and the class associations and random
	// tables are replaced as a whole in one atomic unit. The ID and
	// CreatedAt of an existing spell are kept.
	// Returns errors.InvalidArgument for a nil spell or an empty name
	// Returns errors.Aborted when optimistic retries are exhausted
	// Returns errors.Internal for storage failures
	Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error)

	// GetByName retrieves a spell by exact, case-sensitive name
	// Returns errors.InvalidArgument for an empty name
	// Returns errors.NotFound if no spell has that name
	// Returns errors.Internal for storage failures
	GetByName(ctx context.Context, input GetByNameInput) (*GetByNameOutput, error)

	// List retrieves every stored spell ordered by name
	// Returns errors.Internal for storage failures
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// UpsertInput defines the input for upserting a spell
type UpsertInput struct {
	Spell *compendium.ParsedSpell
}

// UpsertOutput defines the output for upserting a spell
type UpsertOutput struct {
	Spell   *compendium.Spell
	Created bool
}

// GetByNameInput defines the input for getting a spell
type GetByNameInput struct {
	Name string
}

// GetByNameOutput defines the output for getting a spell
type GetByNameOutput struct {
	Spell *compendium.Spell
}

// ListInput defines the input for listing spells
type ListInput struct{}

// ListOutput defines the output for listing spells
type ListOutput struct {
	Spells []*compendium.Spell
}

// Package races persists races keyed by their exact name
package races

//go:generate mockgen -destination=mock/mock_repository.go -package=racesmock github.com/KirkDiggler/rpg-compendium/internal/repositories/races Repository

import (
	"context"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

// Repository defines the interface for race persistence
type Repository interface {
	// Upsert creates the race named input.Race.Name or replaces the stored
	// one. Ability modifiers, traits and proficiencies are replaced as a
	// whole in one atomic unit.
	// Returns errors.InvalidArgument for a nil race or an empty name
	// Returns errors.Aborted when optimistic retries are exhausted
	// Returns errors.Internal for storage failures
	Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error)

	// GetByName retrieves a race by exact, case-sensitive name
	// Returns errors.NotFound if no race has that name
	// Returns errors.Internal for storage failures
	GetByName(ctx context.Context, input GetByNameInput) (*GetByNameOutput, error)

	// List retrieves every stored race ordered by name
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// UpsertInput defines the input for upserting a race
type UpsertInput struct {
	Race *compendium.ParsedRace
}

// UpsertOutput defines the output for upserting a race
type UpsertOutput struct {
	Race    *compendium.Race
	Created bool
}

// GetByNameInput defines the input for getting a race
type GetByNameInput struct {
	Name string
}

// GetByNameOutput defines the output for getting a race
type GetByNameOutput struct {
	Race *compendium.Race
}

// ListInput defines the input for listing races
type ListInput struct{}

// ListOutput defines the output for listing races
type ListOutput struct {
	Races []*compendium.Race
}

package importers

import (
	"context"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/races"
)

// RaceImporterConfig holds the dependencies for the race importer
type RaceImporterConfig struct {
	Repository races.Repository
	Shared     *Shared
}

// Validate ensures all required dependencies are provided
func (c *RaceImporterConfig) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	if c.Repository == nil {
		vb.RequiredField("Repository")
	}
	return vb.Build()
}

// RaceImporter imports races keyed by exact name
type RaceImporter struct {
	repo races.Repository
	run  runner
}

// NewRaceImporter creates a race importer
func NewRaceImporter(cfg *RaceImporterConfig) (*RaceImporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &RaceImporter{
		repo: cfg.Repository,
		run:  newRunner(compendium.EntityTypeRace, EventRaceImported, cfg.Shared),
	}, nil
}

// ImportRaceInput is the parsed race to store
type ImportRaceInput struct {
	Race *compendium.ParsedRace
}

// ImportRaceOutput is the stored race with children in source order
type ImportRaceOutput struct {
	Race    *compendium.Race
	Created bool
}

// Import creates or replaces the race named input.Race.Name
func (i *RaceImporter) Import(ctx context.Context, input *ImportRaceInput) (*ImportRaceOutput, error) {
	if input == nil || input.Race == nil {
		return nil, errors.InvalidArgument("race is required")
	}
	if input.Race.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	var race *compendium.Race
	out, err := i.run.run(ctx, input.Race.Name, func(ctx context.Context) (*stored, error) {
		res, err := i.repo.Upsert(ctx, races.UpsertInput{Race: input.Race})
		if err != nil {
			return nil, err
		}
		race = res.Race
		return &stored{
			entity:   res.Race,
			created:  res.Created,
			name:     res.Race.Name,
			tables:   countTraitTables(res.Race.Traits),
			citation: res.Race.Source,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportRaceOutput{Race: race, Created: out.created}, nil
}

package importers

import (
	"context"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/spells"
)

// SpellImporterConfig holds the dependencies for the spell importer
type SpellImporterConfig struct {
	Repository spells.Repository
	Shared     *Shared
}

// Validate ensures all required dependencies are provided
func (c *SpellImporterConfig) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	if c.Repository == nil {
		vb.RequiredField("Repository")
	}
	return vb.Build()
}

// SpellImporter imports spells keyed by exact name
type SpellImporter struct {
	repo spells.Repository
	run  runner
}

// NewSpellImporter creates a spell importer
func NewSpellImporter(cfg *SpellImporterConfig) (*SpellImporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &SpellImporter{
		repo: cfg.Repository,
		run:  newRunner(compendium.EntityTypeSpell, EventSpellImported, cfg.Shared),
	}, nil
}

// ImportSpellInput is the parsed spell to store
type ImportSpellInput struct {
	Spell *compendium.ParsedSpell
}

// ImportSpellOutput is the stored spell with children in source order
type ImportSpellOutput struct {
	Spell   *compendium.Spell
	Created bool
}

// Import creates or replaces the spell named input.Spell.Name
func (i *SpellImporter) Import(ctx context.Context, input *ImportSpellInput) (*ImportSpellOutput, error) {
	if input == nil || input.Spell == nil {
		return nil, errors.InvalidArgument("spell is required")
	}
	if input.Spell.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	var spell *compendium.Spell
	out, err := i.run.run(ctx, input.Spell.Name, func(ctx context.Context) (*stored, error) {
		res, err := i.repo.Upsert(ctx, spells.UpsertInput{Spell: input.Spell})
		if err != nil {
			return nil, err
		}
		spell = res.Spell
		return &stored{
			entity:   res.Spell,
			created:  res.Created,
			name:     res.Spell.Name,
			tables:   len(res.Spell.RandomTables),
			citation: res.Spell.Source,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportSpellOutput{Spell: spell, Created: out.created}, nil
}

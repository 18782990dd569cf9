package importers

import (
	"context"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/items"
)

// ItemImporterConfig holds the dependencies for the item importer
type ItemImporterConfig struct {
	Repository items.Repository
	Shared     *Shared
}

// Validate ensures all required dependencies are provided
func (c *ItemImporterConfig) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	if c.Repository == nil {
		vb.RequiredField("Repository")
	}
	return vb.Build()
}

// ItemImporter imports items keyed by slug
type ItemImporter struct {
	repo items.Repository
	run  runner
}

// NewItemImporter creates an item importer
func NewItemImporter(cfg *ItemImporterConfig) (*ItemImporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &ItemImporter{
		repo: cfg.Repository,
		run:  newRunner(compendium.EntityTypeItem, EventItemImported, cfg.Shared),
	}, nil
}

// ImportItemInput is the parsed item to store
type ImportItemInput struct {
	Item *compendium.ParsedItem
}

// ImportItemOutput is the stored item
type ImportItemOutput struct {
	Item    *compendium.Item
	Created bool
}

// Import creates or replaces the item with input.Item.Slug
func (i *ItemImporter) Import(ctx context.Context, input *ImportItemInput) (*ImportItemOutput, error) {
	if input == nil || input.Item == nil {
		return nil, errors.InvalidArgument("item is required")
	}
	if input.Item.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}
	if input.Item.Slug == "" {
		return nil, errors.RequiredFieldMissing("slug")
	}

	var item *compendium.Item
	out, err := i.run.run(ctx, input.Item.Slug, func(ctx context.Context) (*stored, error) {
		res, err := i.repo.Upsert(ctx, items.UpsertInput{Item: input.Item})
		if err != nil {
			return nil, err
		}
		item = res.Item
		return &stored{
			entity:   res.Item,
			created:  res.Created,
			name:     res.Item.Name,
			tables:   len(res.Item.RandomTables),
			citation: res.Item.Source,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportItemOutput{Item: item, Created: out.created}, nil
}

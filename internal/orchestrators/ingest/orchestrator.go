// Package ingest drives batch imports: it reads compendium XML, parses each
// element and hands the record to the importer for its kind over a bounded
// worker pool.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/importers"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
)

// DefaultWorkers is used when Config.Workers is zero
const DefaultWorkers = 4

// Element tags read from compendium files
const (
	TagSpell = "spell"
	TagRace  = "race"
	TagItem  = "item"
)

// Service defines the batch ingest operations
type Service interface {
	IngestFile(ctx context.Context, input *IngestFileInput) (*IngestFileOutput, error)
	IngestElements(ctx context.Context, input *IngestElementsInput) (*IngestElementsOutput, error)
}

// SpellImporter stores parsed spells
type SpellImporter interface {
	Import(ctx context.Context, input *importers.ImportSpellInput) (*importers.ImportSpellOutput, error)
}

// RaceImporter stores parsed races
type RaceImporter interface {
	Import(ctx context.Context, input *importers.ImportRaceInput) (*importers.ImportRaceOutput, error)
}

// ItemImporter stores parsed items
type ItemImporter interface {
	Import(ctx context.Context, input *importers.ImportItemInput) (*importers.ImportItemOutput, error)
}

// Config holds the dependencies for the ingest orchestrator
type Config struct {
	SpellImporter SpellImporter
	RaceImporter  RaceImporter
	ItemImporter  ItemImporter

	// Schemas overrides field tags per element kind ("spell", "race", "item")
	Schemas map[string]parsers.Schema
	// Sources resolves citation titles; nil uses the built-in catalog
	Sources *extract.SourceCatalog
	// Proficiencies classifies race proficiencies; nil uses the built-in catalog
	Proficiencies *extract.ProficiencyCatalog

	// Workers bounds concurrent imports
	Workers int
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	if c.SpellImporter == nil {
		vb.RequiredField("SpellImporter")
	}
	if c.RaceImporter == nil {
		vb.RequiredField("RaceImporter")
	}
	if c.ItemImporter == nil {
		vb.RequiredField("ItemImporter")
	}
	if c.Workers < 0 {
		vb.InvalidField("Workers", "must not be negative")
	}
	for kind := range c.Schemas {
		if kind != TagSpell && kind != TagRace && kind != TagItem {
			vb.InvalidField("Schemas", "unknown element kind "+kind)
		}
	}
	return vb.Build()
}

type orchestrator struct {
	spellImporter SpellImporter
	raceImporter  RaceImporter
	itemImporter  ItemImporter
	spellParser   *parsers.SpellParser
	raceParser    *parsers.RaceParser
	itemParser    *parsers.ItemParser
	workers       int
}

// NewOrchestrator creates an ingest orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	parserConfig := func(kind string) *parsers.Config {
		return &parsers.Config{
			Schema:        cfg.Schemas[kind],
			Sources:       cfg.Sources,
			Proficiencies: cfg.Proficiencies,
		}
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}

	return &orchestrator{
		spellImporter: cfg.SpellImporter,
		raceImporter:  cfg.RaceImporter,
		itemImporter:  cfg.ItemImporter,
		spellParser:   parsers.NewSpellParser(parserConfig(TagSpell)),
		raceParser:    parsers.NewRaceParser(parserConfig(TagRace)),
		itemParser:    parsers.NewItemParser(parserConfig(TagItem)),
		workers:       workers,
	}, nil
}

// IngestFile reads every spell, race and item element of a file and imports them
func (o *orchestrator) IngestFile(ctx context.Context, input *IngestFileInput) (*IngestFileOutput, error) {
	if input == nil || input.Path == "" {
		return nil, errors.RequiredFieldMissing("path")
	}

	f, err := os.Open(input.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("compendium file %s not found", input.Path)
		}
		return nil, errors.Wrapf(err, "failed to open %s", input.Path)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close compendium file", "path", input.Path, "error", err)
		}
	}()

	elements, err := parsers.ReadElements(f, TagSpell, TagRace, TagItem)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", input.Path)
	}

	slog.InfoContext(ctx, "ingesting compendium file",
		"path", input.Path,
		"elements", len(elements))

	out, err := o.IngestElements(ctx, &IngestElementsInput{Elements: elements})
	if err != nil {
		return nil, err
	}

	return &IngestFileOutput{
		Path:    input.Path,
		Results: out.Results,
		Summary: out.Summary,
	}, nil
}

// IngestElements imports each element on a bounded pool. A failed element
// never stops the batch. Cancelling ctx stops scheduling; imports already
// running finish on a context that ignores the cancellation so no entity is
// left half replaced.
func (o *orchestrator) IngestElements(ctx context.Context, input *IngestElementsInput) (*IngestElementsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	start := time.Now()
	results := make([]ElementResult, len(input.Elements))
	work := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(o.workers)

	for i := range input.Elements {
		results[i] = ElementResult{Index: i, Kind: input.Elements[i].Tag()}
		if err := ctx.Err(); err != nil {
			results[i].Err = notStarted(err)
			continue
		}

		// g.Go blocks while the pool is full; ctx may be canceled by the
		// time this element gets a slot.
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = notStarted(err)
				return nil
			}
			o.ingestOne(work, &input.Elements[i], &results[i])
			return nil
		})
	}
	_ = g.Wait()

	summary := summarize(results)
	slog.InfoContext(ctx, "ingest finished",
		"elements", len(results),
		"created", summary.Created,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"elapsed", time.Since(start))

	return &IngestElementsOutput{Results: results, Summary: summary}, nil
}

func notStarted(err error) error {
	return errors.WrapWithCode(err, errors.CodeCanceled, "import not started")
}

func (o *orchestrator) ingestOne(ctx context.Context, el *parsers.Element, res *ElementResult) {
	switch el.Tag() {
	case TagSpell:
		res.Kind = compendium.EntityTypeSpell
		parsed, err := o.spellParser.Parse(el)
		if err != nil {
			res.Err = err
			break
		}
		res.Name = parsed.Name
		out, err := o.spellImporter.Import(ctx, &importers.ImportSpellInput{Spell: parsed})
		if err != nil {
			res.Err = err
			break
		}
		res.EntityID, res.Created = out.Spell.ID, out.Created

	case TagRace:
		res.Kind = compendium.EntityTypeRace
		parsed, err := o.raceParser.Parse(el)
		if err != nil {
			res.Err = err
			break
		}
		res.Name = parsed.Name
		out, err := o.raceImporter.Import(ctx, &importers.ImportRaceInput{Race: parsed})
		if err != nil {
			res.Err = err
			break
		}
		res.EntityID, res.Created = out.Race.ID, out.Created

	case TagItem:
		res.Kind = compendium.EntityTypeItem
		parsed, err := o.itemParser.Parse(el)
		if err != nil {
			res.Err = err
			break
		}
		res.Name = parsed.Name
		out, err := o.itemImporter.Import(ctx, &importers.ImportItemInput{Item: parsed})
		if err != nil {
			res.Err = err
			break
		}
		res.EntityID, res.Created = out.Item.ID, out.Created

	default:
		res.Err = errors.InvalidArgumentf("unsupported element <%s>", el.Tag())
	}

	if res.Err != nil {
		slog.WarnContext(ctx, "element import failed",
			"index", res.Index,
			"kind", res.Kind,
			"name", res.Name,
			"error", res.Err)
	}
}

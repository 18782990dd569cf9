// Package external loads proficiency reference lists from the dnd5e-api
package external

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	"github.com/fadedpez/dnd5e-api/entities"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
)

// DefaultBaseURL is the public dnd5e-api endpoint
const DefaultBaseURL = "https://www.dnd5eapi.co/api/2014/"

// equipment categories whose members are proficiency names
var categoryTypes = []struct {
	category string
	kind     compendium.ProficiencyType
}{
	{"simple-weapons", compendium.ProficiencyWeapon},
	{"martial-weapons", compendium.ProficiencyWeapon},
	{"light-armor", compendium.ProficiencyArmor},
	{"medium-armor", compendium.ProficiencyArmor},
	{"heavy-armor", compendium.ProficiencyArmor},
	{"shields", compendium.ProficiencyArmor},
	{"artisans-tools", compendium.ProficiencyTool},
	{"gaming-sets", compendium.ProficiencyTool},
	{"musical-instruments", compendium.ProficiencyTool},
	{"other-tools", compendium.ProficiencyTool},
}

// Client loads proficiency catalogs
type Client interface {
	// LoadProficiencies returns the built-in catalog extended with every
	// weapon, armor, tool and skill name the API knows
	LoadProficiencies(ctx context.Context) (*extract.ProficiencyCatalog, error)
}

// referenceAPI is the part of the dnd5e-api client the loader uses
type referenceAPI interface {
	GetEquipmentCategory(key string) (*entities.EquipmentCategory, error)
	ListSkills() ([]*entities.ReferenceItem, error)
}

// Config contains configuration options for the external client.
type Config struct {
	// BaseURL for the D&D 5e API (optional, defaults to DefaultBaseURL)
	BaseURL string
	// HTTPTimeout for API requests (optional, defaults to 30 seconds)
	HTTPTimeout time.Duration
	// CacheTTL for the cached client (optional, defaults to 24 hours)
	CacheTTL time.Duration
}

// Validate validates the Config and sets defaults if not provided.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	vb := errors.NewValidationBuilder()
	if cfg.HTTPTimeout < 0 {
		vb.InvalidField("HTTPTimeout", "must not be negative")
	}
	if cfg.CacheTTL < 0 {
		vb.InvalidField("CacheTTL", "must not be negative")
	}
	return vb.Build()
}

type client struct {
	api referenceAPI
}

// New creates a new external client with the given configuration.
func New(cfg *Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	baseClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create D&D 5e API client")
	}

	return &client{api: dnd5e.NewCachedClient(baseClient, cfg.CacheTTL)}, nil
}

func (c *client) LoadProficiencies(ctx context.Context) (*extract.ProficiencyCatalog, error) {
	catalog := extract.NewProficiencyCatalog()
	before := catalog.Len()

	for _, ct := range categoryTypes {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeCanceled, "proficiency load canceled")
		}

		category, err := c.api.GetEquipmentCategory(ct.category)
		if err != nil {
			return nil, errors.WrapWithCodef(err, errors.CodeUnavailable,
				"failed to get equipment category %s from D&D 5e API", ct.category)
		}
		if category == nil {
			continue
		}
		catalog.Add(ct.kind, referenceNames(category.Equipment)...)
	}

	skills, err := c.api.ListSkills()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to list skills from D&D 5e API")
	}
	catalog.Add(compendium.ProficiencySkill, referenceNames(skills)...)

	slog.InfoContext(ctx, "loaded proficiency reference lists",
		"builtin", before,
		"total", catalog.Len())

	return catalog, nil
}

func referenceNames(refs []*entities.ReferenceItem) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != nil && ref.Name != "" {
			names = append(names, ref.Name)
		}
	}
	return names
}

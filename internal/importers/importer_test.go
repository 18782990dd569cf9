package importers_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/importers"
	"github.com/KirkDiggler/rpg-compendium/internal/metrics"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/keylock"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/items"
	itemsmock "github.com/KirkDiggler/rpg-compendium/internal/repositories/items/mock"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/races"
	racesmock "github.com/KirkDiggler/rpg-compendium/internal/repositories/races/mock"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/spells"
	spellsmock "github.com/KirkDiggler/rpg-compendium/internal/repositories/spells/mock"
	"github.com/KirkDiggler/rpg-compendium/internal/testutils"
)

// recordingBus keeps every published event
type recordingBus struct {
	mu         sync.Mutex
	published  []events.Event
	publishErr error
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
	return b.publishErr
}
func (b *recordingBus) Subscribe(_ string, _ events.Handler) string { return "sub-id" }
func (b *recordingBus) SubscribeFunc(_ string, _ int, _ events.HandlerFunc) string {
	return "sub-id"
}
func (b *recordingBus) Unsubscribe(_ string) error { return nil }
func (b *recordingBus) Clear(_ string)             {}
func (b *recordingBus) ClearAll()                  {}

func (b *recordingBus) events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

type ImporterTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	spellRepo *spellsmock.MockRepository
	raceRepo  *racesmock.MockRepository
	itemRepo  *itemsmock.MockRepository
	bus       *recordingBus
	metrics   *metrics.Metrics
	shared    *importers.Shared
	spells    *importers.SpellImporter
	races     *importers.RaceImporter
	items     *importers.ItemImporter
	ctx       context.Context
}

func (s *ImporterTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.spellRepo = spellsmock.NewMockRepository(s.ctrl)
	s.raceRepo = racesmock.NewMockRepository(s.ctrl)
	s.itemRepo = itemsmock.NewMockRepository(s.ctrl)
	s.bus = &recordingBus{}
	s.ctx = context.Background()

	m, err := metrics.New(prometheus.NewRegistry())
	s.Require().NoError(err)
	s.metrics = m

	s.shared = &importers.Shared{EventBus: s.bus, Metrics: m, Locks: keylock.New()}

	s.spells, err = importers.NewSpellImporter(&importers.SpellImporterConfig{Repository: s.spellRepo, Shared: s.shared})
	s.Require().NoError(err)
	s.races, err = importers.NewRaceImporter(&importers.RaceImporterConfig{Repository: s.raceRepo, Shared: s.shared})
	s.Require().NoError(err)
	s.items, err = importers.NewItemImporter(&importers.ItemImporterConfig{Repository: s.itemRepo, Shared: s.shared})
	s.Require().NoError(err)
}

func (s *ImporterTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestImporterSuite(t *testing.T) {
	suite.Run(t, new(ImporterTestSuite))
}

func (s *ImporterTestSuite) TestConstructorsRequireRepository() {
	_, err := importers.NewSpellImporter(&importers.SpellImporterConfig{})
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = importers.NewRaceImporter(nil)
	s.Error(err)

	_, err = importers.NewItemImporter(&importers.ItemImporterConfig{Shared: s.shared})
	s.Error(err)
}

func (s *ImporterTestSuite) TestImportSpell() {
	parsed := &compendium.ParsedSpell{
		Name:  "Fireball",
		Slug:  "fireball",
		Level: 3,
		Source: compendium.SourceCitation{
			Title:  "Player's Handbook",
			Status: compendium.CitationUnmapped,
		},
		RandomTables: []compendium.ParsedTable{{TableName: "Scorch", DiceType: "d4"}},
	}

	s.Run("created spell publishes event and records metrics", func() {
		s.spellRepo.EXPECT().
			Upsert(gomock.Any(), spells.UpsertInput{Spell: parsed}).
			Return(&spells.UpsertOutput{
				Spell:   &compendium.Spell{ID: "spell_1", ParsedSpell: *parsed},
				Created: true,
			}, nil)

		out, err := s.spells.Import(s.ctx, &importers.ImportSpellInput{Spell: parsed})
		s.Require().NoError(err)
		s.True(out.Created)
		s.Equal("spell_1", out.Spell.ID)

		published := s.bus.events()
		s.Require().Len(published, 1)
		s.Equal(importers.EventSpellImported, published[0].Type())
		s.Equal("spell_1", published[0].Source().GetID())

		s.Equal(1.0, testutil.ToFloat64(s.metrics.Imports("spell", metrics.OutcomeCreated, errors.CodeOK.String())))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Citations("spell", string(compendium.CitationUnmapped))))
	})

	s.Run("second import reports update", func() {
		s.spellRepo.EXPECT().
			Upsert(gomock.Any(), gomock.Any()).
			Return(&spells.UpsertOutput{
				Spell:   &compendium.Spell{ID: "spell_1", ParsedSpell: *parsed},
				Created: false,
			}, nil)

		out, err := s.spells.Import(s.ctx, &importers.ImportSpellInput{Spell: parsed})
		s.Require().NoError(err)
		s.False(out.Created)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Imports("spell", metrics.OutcomeUpdated, errors.CodeOK.String())))
	})
}

func (s *ImporterTestSuite) TestImportSpellValidation() {
	testCases := []struct {
		name  string
		input *importers.ImportSpellInput
		check func(error) bool
	}{
		{name: "nil input", input: nil, check: errors.IsInvalidArgument},
		{name: "nil spell", input: &importers.ImportSpellInput{}, check: errors.IsInvalidArgument},
		{
			name:  "missing name",
			input: &importers.ImportSpellInput{Spell: &compendium.ParsedSpell{Slug: "x"}},
			check: errors.IsRequiredFieldMissing,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			out, err := s.spells.Import(s.ctx, tc.input)
			s.Error(err)
			s.Nil(out)
			s.True(tc.check(err))
		})
	}
	s.Empty(s.bus.events())
}

func (s *ImporterTestSuite) TestImportSpellRepositoryError() {
	s.spellRepo.EXPECT().
		Upsert(gomock.Any(), gomock.Any()).
		Return(nil, errors.Aborted("conflict"))

	out, err := s.spells.Import(s.ctx, &importers.ImportSpellInput{
		Spell: &compendium.ParsedSpell{Name: "Shield", Slug: "shield"},
	})
	s.Error(err)
	s.Nil(out)
	s.True(errors.IsAborted(err))
	s.Empty(s.bus.events())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Imports("spell", metrics.OutcomeFailed, errors.CodeAborted.String())))
}

func (s *ImporterTestSuite) TestPublishFailureDoesNotFailImport() {
	s.bus.publishErr = errors.Unavailable("bus down")
	parsed := testutils.HillDwarf()
	s.raceRepo.EXPECT().
		Upsert(gomock.Any(), races.UpsertInput{Race: parsed}).
		Return(&races.UpsertOutput{
			Race:    &compendium.Race{ID: "race_1", ParsedRace: *parsed},
			Created: true,
		}, nil)

	out, err := s.races.Import(s.ctx, &importers.ImportRaceInput{Race: parsed})
	s.Require().NoError(err)
	s.True(out.Created)
	s.Len(s.bus.events(), 1)
}

func (s *ImporterTestSuite) TestImportRaceMissingName() {
	_, err := s.races.Import(s.ctx, &importers.ImportRaceInput{Race: &compendium.ParsedRace{}})
	s.True(errors.IsRequiredFieldMissing(err))
	s.Equal("name", errors.MissingField(err))
}

func (s *ImporterTestSuite) TestImportItem() {
	parsed := testutils.Longbow()

	s.Run("stores by slug", func() {
		s.itemRepo.EXPECT().
			Upsert(gomock.Any(), items.UpsertInput{Item: parsed}).
			Return(&items.UpsertOutput{
				Item:    &compendium.Item{ID: "item_1", ParsedItem: *parsed},
				Created: true,
			}, nil)

		out, err := s.items.Import(s.ctx, &importers.ImportItemInput{Item: parsed})
		s.Require().NoError(err)
		s.Equal("item_1", out.Item.ID)
		s.Equal(importers.EventItemImported, s.bus.events()[0].Type())
	})

	s.Run("missing slug", func() {
		_, err := s.items.Import(s.ctx, &importers.ImportItemInput{
			Item: &compendium.ParsedItem{Name: "Longbow"},
		})
		s.True(errors.IsRequiredFieldMissing(err))
		s.Equal("slug", errors.MissingField(err))
	})
}

func (s *ImporterTestSuite) TestCanceledWhileWaitingForKey() {
	unlock, err := s.shared.Locks.Lock(s.ctx, "spell:Fireball")
	s.Require().NoError(err)
	defer unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()

	_, err = s.spells.Import(ctx, &importers.ImportSpellInput{
		Spell: &compendium.ParsedSpell{Name: "Fireball", Slug: "fireball"},
	})
	s.Error(err)
	s.True(errors.IsCanceled(err))
}

// StoreImportTestSuite runs importers against a real SQLite store
type StoreImportTestSuite struct {
	suite.Suite
	importer *importers.SpellImporter
	repo     spells.Repository
	cleanup  func()
	ctx      context.Context
}

func (s *StoreImportTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, cleanup := testutils.CreateTestSQLDB(s.T())
	s.cleanup = cleanup

	repo, err := spells.NewSQL(&spells.SQLConfig{
		DB:          db,
		Clock:       clock.NewStepping(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Second),
		IDGenerator: idgen.NewSequential("spell"),
	})
	s.Require().NoError(err)
	s.repo = repo

	s.importer, err = importers.NewSpellImporter(&importers.SpellImporterConfig{Repository: repo})
	s.Require().NoError(err)
}

func (s *StoreImportTestSuite) TearDownTest() {
	s.cleanup()
}

func TestStoreImportSuite(t *testing.T) {
	suite.Run(t, new(StoreImportTestSuite))
}

func (s *StoreImportTestSuite) TestReimportReplacesChildren() {
	first := &compendium.ParsedSpell{
		Name: "Wild Surge",
		Slug: "wild-surge",
		Classes: []compendium.ClassAssociation{
			{ClassName: "Sorcerer"},
			{ClassName: "Wizard"},
		},
	}
	out, err := s.importer.Import(s.ctx, &importers.ImportSpellInput{Spell: first})
	s.Require().NoError(err)
	s.True(out.Created)
	id := out.Spell.ID

	second := &compendium.ParsedSpell{
		Name:    "Wild Surge",
		Slug:    "wild-surge",
		Classes: []compendium.ClassAssociation{{ClassName: "Bard"}},
	}
	out, err = s.importer.Import(s.ctx, &importers.ImportSpellInput{Spell: second})
	s.Require().NoError(err)
	s.False(out.Created)
	s.Equal(id, out.Spell.ID)

	got, err := s.repo.GetByName(s.ctx, spells.GetByNameInput{Name: "Wild Surge"})
	s.Require().NoError(err)
	s.Require().Len(got.Spell.Classes, 1)
	s.Equal("Bard", got.Spell.Classes[0].ClassName)
}

func (s *StoreImportTestSuite) TestImportEventsReachLogSubscriber() {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bus := events.NewBus()
	ids := importers.LogImports(bus, logger)
	s.Len(ids, len(importers.ImportEventTypes))

	importer, err := importers.NewSpellImporter(&importers.SpellImporterConfig{
		Repository: s.repo,
		Shared:     &importers.Shared{EventBus: bus},
	})
	s.Require().NoError(err)

	out, err := importer.Import(s.ctx, &importers.ImportSpellInput{Spell: testutils.Revivify()})
	s.Require().NoError(err)

	logged := buf.String()
	s.Contains(logged, "compendium entity imported")
	s.Contains(logged, "event="+importers.EventSpellImported)
	s.Contains(logged, "id="+out.Spell.ID)
	s.Contains(logged, "entity=spell")

	for _, id := range ids {
		s.Require().NoError(bus.Unsubscribe(id))
	}
	buf.Reset()
	_, err = importer.Import(s.ctx, &importers.ImportSpellInput{Spell: testutils.Revivify()})
	s.Require().NoError(err)
	s.Empty(strings.TrimSpace(buf.String()))
}

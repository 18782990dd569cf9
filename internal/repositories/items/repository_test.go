package items_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/items"
	"github.com/KirkDiggler/rpg-compendium/internal/testutils"
)

var testStart = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type RepositoryTestSuite struct {
	suite.Suite
	newRepo func() (items.Repository, func())
	repo    items.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo, s.cleanup = s.newRepo()
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, &RepositoryTestSuite{
		newRepo: func() (items.Repository, func()) {
			client, cleanup := testutils.CreateTestRedisClient(t)
			repo, err := items.NewRedis(&items.RedisConfig{
				Client:      client,
				Clock:       clock.NewStepping(testStart, time.Minute),
				IDGenerator: idgen.NewSequential("item"),
			})
			if err != nil {
				t.Fatalf("new redis repository: %v", err)
			}
			return repo, cleanup
		},
	})
}

func TestSQLRepositorySuite(t *testing.T) {
	suite.Run(t, &RepositoryTestSuite{
		newRepo: func() (items.Repository, func()) {
			db, cleanup := testutils.CreateTestSQLDB(t)
			repo, err := items.NewSQL(&items.SQLConfig{
				DB:          db,
				Clock:       clock.NewStepping(testStart, time.Minute),
				IDGenerator: idgen.NewSequential("item"),
			})
			if err != nil {
				t.Fatalf("new sql repository: %v", err)
			}
			return repo, cleanup
		},
	})
}

func (s *RepositoryTestSuite) TestUpsertCreatesAndReads() {
	out, err := s.repo.Upsert(s.ctx, items.UpsertInput{Item: testutils.Longbow()})
	s.Require().NoError(err)
	s.True(out.Created)

	got, err := s.repo.GetBySlug(s.ctx, items.GetBySlugInput{Slug: "longbow"})
	s.Require().NoError(err)
	s.Equal(testutils.Longbow().Properties, got.Item.Properties)
	s.Equal("150/600", *got.Item.Range)
	s.Equal("1d8", *got.Item.DamageDice)
	s.Nil(got.Item.DamageDiceVersatile)
	s.Nil(got.Item.Rarity)
	s.InDelta(50, *got.Item.ValueGP, 0.0001)
	s.Equal(compendium.CitationMissing, got.Item.Source.Status)
}

func (s *RepositoryTestSuite) TestArmorAndChargesRoundTrip() {
	armor := &compendium.ParsedItem{
		Name:                "Plate Armor",
		Slug:                "plate-armor",
		TypeCode:            "HA",
		ArmorClass:          testutils.IntPtr(18),
		StrengthRequirement: testutils.IntPtr(15),
		StealthDisadvantage: true,
		Charges: compendium.Charges{
			ChargesMax:      testutils.StrPtr("3"),
			RechargeFormula: testutils.StrPtr("1d3"),
			RechargeTiming:  testutils.StrPtr("dawn"),
		},
		Source: compendium.SourceCitation{Status: compendium.CitationMissing},
	}
	_, err := s.repo.Upsert(s.ctx, items.UpsertInput{Item: armor})
	s.Require().NoError(err)

	got, err := s.repo.GetBySlug(s.ctx, items.GetBySlugInput{Slug: "plate-armor"})
	s.Require().NoError(err)
	s.Equal(armor.ArmorClass, got.Item.ArmorClass)
	s.Equal(armor.StrengthRequirement, got.Item.StrengthRequirement)
	s.True(got.Item.StealthDisadvantage)
	s.Equal(armor.Charges, got.Item.Charges)

	bow, err := s.repo.Upsert(s.ctx, items.UpsertInput{Item: testutils.Longbow()})
	s.Require().NoError(err)
	s.Nil(bow.Item.ArmorClass)
	got, err = s.repo.GetBySlug(s.ctx, items.GetBySlugInput{Slug: "longbow"})
	s.Require().NoError(err)
	s.Nil(got.Item.ArmorClass)
	s.Nil(got.Item.StrengthRequirement)
	s.False(got.Item.StealthDisadvantage)
	s.Equal(compendium.Charges{}, got.Item.Charges)
}

func (s *RepositoryTestSuite) TestUpsertReplacesBySlug() {
	first, err := s.repo.Upsert(s.ctx, items.UpsertInput{Item: testutils.Longbow()})
	s.Require().NoError(err)

	update := testutils.Longbow()
	update.Name = "Longbow (Elven)"
	update.Properties = []string{"A"}
	update.Weight = nil

	second, err := s.repo.Upsert(s.ctx, items.UpsertInput{Item: update})
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(first.Item.ID, second.Item.ID)

	got, err := s.repo.GetBySlug(s.ctx, items.GetBySlugInput{Slug: "longbow"})
	s.Require().NoError(err)
	s.Equal("Longbow (Elven)", got.Item.Name)
	s.Equal([]string{"A"}, got.Item.Properties)
	s.Nil(got.Item.Weight)

	list, err := s.repo.List(s.ctx, items.ListInput{})
	s.Require().NoError(err)
	s.Len(list.Items, 1)
}

func (s *RepositoryTestSuite) TestErrors() {
	_, err := s.repo.Upsert(s.ctx, items.UpsertInput{})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Upsert(s.ctx, items.UpsertInput{Item: &compendium.ParsedItem{Name: "Rope"}})
	s.True(errors.IsRequiredFieldMissing(err))
	s.Equal("slug", errors.MissingField(err))

	_, err = s.repo.GetBySlug(s.ctx, items.GetBySlugInput{Slug: "vorpal-sword"})
	s.True(errors.IsNotFound(err))
}

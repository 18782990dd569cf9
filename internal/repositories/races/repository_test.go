package races_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/races"
	"github.com/KirkDiggler/rpg-compendium/internal/testutils"
)

var testStart = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type RepositoryTestSuite struct {
	suite.Suite
	newRepo func() (races.Repository, func())
	repo    races.Repository
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
		newRepo: func() (races.Repository, func()) {
			client, cleanup := testutils.CreateTestRedisClient(t)
			repo, err := races.NewRedis(&races.RedisConfig{
				Client:      client,
				Clock:       clock.NewStepping(testStart, time.Minute),
				IDGenerator: idgen.NewSequential("race"),
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
		newRepo: func() (races.Repository, func()) {
			db, cleanup := testutils.CreateTestSQLDB(t)
			repo, err := races.NewSQL(&races.SQLConfig{
				DB:          db,
				Clock:       clock.NewStepping(testStart, time.Minute),
				IDGenerator: idgen.NewSequential("race"),
			})
			if err != nil {
				t.Fatalf("new sql repository: %v", err)
			}
			return repo, cleanup
		},
	})
}

func (s *RepositoryTestSuite) TestUpsertCreatesAndReads() {
	out, err := s.repo.Upsert(s.ctx, races.UpsertInput{Race: testutils.HillDwarf()})
	s.Require().NoError(err)
	s.True(out.Created)

	got, err := s.repo.GetByName(s.ctx, races.GetByNameInput{Name: "Dwarf, Hill"})
	s.Require().NoError(err)
	s.Equal(out.Race.ID, got.Race.ID)
	s.Equal(testutils.HillDwarf().AbilityModifiers, got.Race.AbilityModifiers)
	s.Equal(testutils.HillDwarf().Traits, got.Race.Traits)
	s.Equal(testutils.HillDwarf().Proficiencies, got.Race.Proficiencies)
	s.Equal("Dwarf", *got.Race.BaseRaceName)
	s.Equal(25, got.Race.Speed)
}

func (s *RepositoryTestSuite) TestLanguagesAndDefensesRoundTrip() {
	race := testutils.HillDwarf()
	race.Languages = []compendium.Language{{Name: "Common"}, {Name: "Dwarvish"}, {IsChoice: true}}
	race.Resistances = []string{"poison"}
	race.Conditions = []compendium.ConditionEffect{
		{Condition: "poisoned", EffectType: compendium.ConditionAdvantage},
		{Condition: "disease", EffectType: compendium.ConditionImmunity},
	}
	_, err := s.repo.Upsert(s.ctx, races.UpsertInput{Race: race})
	s.Require().NoError(err)

	got, err := s.repo.GetByName(s.ctx, races.GetByNameInput{Name: "Dwarf, Hill"})
	s.Require().NoError(err)
	s.Equal(race.Languages, got.Race.Languages)
	s.Equal(race.Resistances, got.Race.Resistances)
	s.Equal(race.Conditions, got.Race.Conditions)

	// languages are an owned list and are replaced, not merged
	update := testutils.HillDwarf()
	update.Languages = []compendium.Language{{Name: "Common"}}
	_, err = s.repo.Upsert(s.ctx, races.UpsertInput{Race: update})
	s.Require().NoError(err)

	got, err = s.repo.GetByName(s.ctx, races.GetByNameInput{Name: "Dwarf, Hill"})
	s.Require().NoError(err)
	s.Equal([]compendium.Language{{Name: "Common"}}, got.Race.Languages)
	s.Nil(got.Race.Resistances)
	s.Nil(got.Race.Conditions)
}

func (s *RepositoryTestSuite) TestUpsertReplacesChildren() {
	first, err := s.repo.Upsert(s.ctx, races.UpsertInput{Race: testutils.HillDwarf()})
	s.Require().NoError(err)

	update := testutils.HillDwarf()
	update.Speed = 30
	update.AbilityModifiers = []compendium.AbilityModifier{{Ability: "Strength", Value: "+2"}}
	update.Traits = nil
	update.Proficiencies = []compendium.Proficiency{{Name: "Light Armor", Type: compendium.ProficiencyArmor}}

	second, err := s.repo.Upsert(s.ctx, races.UpsertInput{Race: update})
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(first.Race.ID, second.Race.ID)
	s.Equal(first.Race.CreatedAt, second.Race.CreatedAt)

	got, err := s.repo.GetByName(s.ctx, races.GetByNameInput{Name: "Dwarf, Hill"})
	s.Require().NoError(err)
	s.Equal(30, got.Race.Speed)
	s.Equal(update.AbilityModifiers, got.Race.AbilityModifiers)
	s.Empty(got.Race.Traits)
	s.Equal(update.Proficiencies, got.Race.Proficiencies)

	list, err := s.repo.List(s.ctx, races.ListInput{})
	s.Require().NoError(err)
	s.Len(list.Races, 1)
}

func (s *RepositoryTestSuite) TestErrors() {
	_, err := s.repo.Upsert(s.ctx, races.UpsertInput{})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Upsert(s.ctx, races.UpsertInput{Race: &compendium.ParsedRace{}})
	s.True(errors.IsRequiredFieldMissing(err))

	_, err = s.repo.GetByName(s.ctx, races.GetByNameInput{Name: "Tortle"})
	s.True(errors.IsNotFound(err))
}

package external

import (
	"context"
	"errors"
	"testing"

	"github.com/fadedpez/dnd5e-api/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	internalerrors "github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// mockReferenceAPI is a mock implementation of the dnd5e-api reference calls
type mockReferenceAPI struct {
	mock.Mock
}

func (m *mockReferenceAPI) GetEquipmentCategory(key string) (*entities.EquipmentCategory, error) {
	args := m.Called(key)
	category, _ := args.Get(0).(*entities.EquipmentCategory)
	return category, args.Error(1)
}

func (m *mockReferenceAPI) ListSkills() ([]*entities.ReferenceItem, error) {
	args := m.Called()
	skills, _ := args.Get(0).([]*entities.ReferenceItem)
	return skills, args.Error(1)
}

func TestLoadProficiencies(t *testing.T) {
	t.Run("extends the built-in catalog", func(t *testing.T) {
		api := new(mockReferenceAPI)
		api.On("GetEquipmentCategory", "martial-weapons").Return(&entities.EquipmentCategory{
			Equipment: []*entities.ReferenceItem{{Key: "double-bladed-scimitar", Name: "Double-Bladed Scimitar"}},
		}, nil)
		api.On("GetEquipmentCategory", "gaming-sets").Return(&entities.EquipmentCategory{
			Equipment: []*entities.ReferenceItem{{Key: "dragonchess-set", Name: "Dragonchess Set"}, nil},
		}, nil)
		api.On("GetEquipmentCategory", mock.Anything).Return(&entities.EquipmentCategory{}, nil)
		api.On("ListSkills").Return([]*entities.ReferenceItem{{Key: "arcana", Name: "Arcana"}}, nil)

		c := &client{api: api}
		catalog, err := c.LoadProficiencies(context.Background())
		require.NoError(t, err)

		assert.Equal(t, compendium.ProficiencyWeapon, catalog.Classify("Double-Bladed Scimitar"))
		assert.Equal(t, compendium.ProficiencyTool, catalog.Classify("dragonchess set"))
		assert.Equal(t, compendium.ProficiencySkill, catalog.Classify("Arcana"))
		assert.Equal(t, compendium.ProficiencyWeapon, catalog.Classify("longsword"))
		api.AssertNumberOfCalls(t, "GetEquipmentCategory", len(categoryTypes))
	})

	t.Run("api failure is unavailable", func(t *testing.T) {
		api := new(mockReferenceAPI)
		api.On("GetEquipmentCategory", mock.Anything).Return(nil, errors.New("connection refused"))

		c := &client{api: api}
		catalog, err := c.LoadProficiencies(context.Background())
		assert.Nil(t, catalog)
		assert.True(t, internalerrors.IsUnavailable(err))
	})

	t.Run("canceled context stops loading", func(t *testing.T) {
		api := new(mockReferenceAPI)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := &client{api: api}
		_, err := c.LoadProficiencies(ctx)
		assert.True(t, internalerrors.IsCanceled(err))
		api.AssertNotCalled(t, "GetEquipmentCategory", mock.Anything)
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.NotZero(t, cfg.HTTPTimeout)
	assert.NotZero(t, cfg.CacheTTL)

	assert.Error(t, (&Config{CacheTTL: -1}).Validate())
}

package errors_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestValidationError() {
	ve := errors.NewValidationError()
	ve.AddFieldError("store.backend", "is required")
	ve.AddFieldErrorf("import.workers", "must be at least %d", 1)

	s.Assert().True(ve.HasErrors())
	s.Assert().Contains(ve.Error(), "store.backend: is required")
	s.Assert().Contains(ve.Error(), "import.workers: must be at least 1")

	err := ve.ToError()
	s.Assert().Equal(errors.CodeInvalidArgument, err.Code)
	s.Assert().NotNil(err.Meta["validation_errors"])
}

func (s *ValidationTestSuite) TestValidationBuilder() {
	err := errors.NewValidationBuilder().
		Field("store.redis.addr", "is required").
		Fieldf("import.workers", "must be between %d and %d", 1, 64).
		RequiredField("SpellRepo").
		InvalidField("logging.format", "unknown format").
		Build()

	s.Require().NotNil(err)
	s.Assert().True(errors.IsInvalidArgument(err))
	s.Assert().False(errors.IsRequiredFieldMissing(err))
}

func (s *ValidationTestSuite) TestValidationBuilderNoErrors() {
	s.Assert().Nil(errors.NewValidationBuilder().Build())
}

func (s *ValidationTestSuite) TestValidateRequired() {
	testCases := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"valid value", "redis", false},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			vb := errors.NewValidationBuilder()
			errors.ValidateRequired("store.backend", tc.value, vb)
			if tc.shouldErr {
				s.Assert().NotNil(vb.Build())
			} else {
				s.Assert().Nil(vb.Build())
			}
		})
	}
}

func (s *ValidationTestSuite) TestValidateRangeAndEnum() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRange("import.workers", 0, 1, 64, vb)
	errors.ValidateRange("import.max_tx_retries", 5, 1, 100, vb)
	errors.ValidateEnum("store.backend", "mongo", []string{"redis", "postgres", "sqlite"}, vb)
	errors.ValidateEnum("logging.format", "json", []string{"text", "json"}, vb)

	err := vb.Build()
	s.Require().NotNil(err)
	validationErrors := errors.GetMeta(err)["validation_errors"].(map[string][]string)
	s.Assert().Contains(validationErrors["import.workers"][0], "must be between 1 and 64")
	s.Assert().Contains(validationErrors["store.backend"][0], "must be one of: redis, postgres, sqlite")
	s.Assert().NotContains(validationErrors, "import.max_tx_retries")
	s.Assert().NotContains(validationErrors, "logging.format")
}

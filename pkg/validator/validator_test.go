package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all rules pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("email", "advisor@example.com"),
			validator.ValidEmail("email", "advisor@example.com"),
		)
		require.NoError(t, err)
	})

	t.Run("accumulates failures per field", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("email", ""),
			validator.Required("password", ""),
		)
		require.Error(t, err)

		ve := validator.ExtractValidationErrors(err)
		require.Len(t, ve, 2)
		assert.True(t, ve.Has("email"))
		assert.True(t, ve.Has("password"))
	})

	t.Run("is validation error", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(validator.Required("name", ""))
		assert.True(t, validator.IsValidationError(err))
		assert.False(t, validator.IsValidationError(nil))
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{
		"advisor@example.com",
		"first.last@firm.co.uk",
		"plus+tag@example.org",
	}
	for _, email := range valid {
		assert.True(t, validator.ValidEmail("email", email).Check(), email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@domain",
		"@example.com",
		"user@.example.com",
		"user@example.com.",
	}
	for _, email := range invalid {
		assert.False(t, validator.ValidEmail("email", email).Check(), email)
	}
}

func TestStrongPassword(t *testing.T) {
	t.Parallel()

	cfg := validator.DefaultPasswordStrength()

	t.Run("accepts diverse password", func(t *testing.T) {
		t.Parallel()
		assert.True(t, validator.StrongPassword("password", "Tr4ding-Desk", cfg).Check())
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()
		assert.False(t, validator.StrongPassword("password", "Ab1!", cfg).Check())
	})

	t.Run("rejects single character class", func(t *testing.T) {
		t.Parallel()
		assert.False(t, validator.StrongPassword("password", "aaaaaaaaaa", cfg).Check())
	})

	t.Run("rejects common password regardless of case", func(t *testing.T) {
		t.Parallel()
		assert.False(t, validator.StrongPassword("password", "Password123", cfg).Check())
	})
}

func TestStringRules(t *testing.T) {
	t.Parallel()

	assert.True(t, validator.Required("f", "value").Check())
	assert.False(t, validator.Required("f", "   ").Check())
	assert.True(t, validator.MinLen("f", "abcdef", 6).Check())
	assert.False(t, validator.MinLen("f", "abc", 6).Check())
	assert.True(t, validator.MaxLen("f", "abc", 6).Check())
	assert.False(t, validator.MaxLen("f", "abcdefgh", 6).Check())
}

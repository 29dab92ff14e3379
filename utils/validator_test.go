package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatedInput struct {
	Name    string  `validate:"required"`
	Email   string  `validate:"required,email"`
	Channel string  `validate:"required,oneof=email text"`
	Score   float64 `validate:"gte=0,lte=100"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(validatedInput{
		Name:    "Holiday Glow",
		Email:   "staff@clinic.com",
		Channel: "email",
		Score:   75,
	})
	require.NoError(t, err)
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(validatedInput{Email: "staff@clinic.com", Channel: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidateStructOneOf(t *testing.T) {
	err := ValidateStruct(validatedInput{
		Name:    "Holiday Glow",
		Email:   "staff@clinic.com",
		Channel: "fax",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel must be one of: email text")
}

func TestValidateStructRange(t *testing.T) {
	err := ValidateStruct(validatedInput{
		Name:    "Holiday Glow",
		Email:   "staff@clinic.com",
		Channel: "email",
		Score:   120,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "score must be at most 100")
}

func TestValidateStructJoinsMultipleErrors(t *testing.T) {
	err := ValidateStruct(validatedInput{Channel: "email", Score: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "email is required")
	assert.Contains(t, err.Error(), "score must be at least 0")
}

func TestValidateStructEmailFormat(t *testing.T) {
	err := ValidateStruct(validatedInput{
		Name:    "Holiday Glow",
		Email:   "not-an-email",
		Channel: "email",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email")
}

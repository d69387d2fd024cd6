package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLength_CountsRunes(t *testing.T) {
	// Кириллица: 6 рун, 12 байт.
	assert.NoError(t, ValidateLength("название", "дизайн", 3, 10))
	assert.Error(t, ValidateLength("название", "аб", 3, 10))
	assert.Error(t, ValidateLength("название", strings.Repeat("а", 11), 3, 10))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice("цена", 5000))
	assert.Error(t, ValidatePrice("цена", 0))
	assert.Error(t, ValidatePrice("цена", MaxPrice+1))
}

func TestValidateSkills(t *testing.T) {
	assert.NoError(t, ValidateSkills([]string{"go", "postgresql"}))
	assert.Error(t, ValidateSkills([]string{""}))
	assert.Error(t, ValidateSkills(make([]string, MaxSkillsCount+1)))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("ссылка", "https://example.com/result.zip"))
	assert.Error(t, ValidateURL("ссылка", ""))
	assert.Error(t, ValidateURL("ссылка", "example.com/result.zip"))
	assert.Error(t, ValidateURL("ссылка", "ftp://example.com/result.zip"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Password1"))
	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllower1"))
	assert.Error(t, ValidatePassword("ALLUPPER1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}

package forms

import (
	"testing"

	"github.com/arvena/talentd/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Onboarding", "onboarding"},
		{"spaces and punctuation", "My Form!! 2024", "my-form-2024"},
		{"whitespace runs", "a   b\t\tc", "a-b-c"},
		{"existing separators", "already-slugged_name", "already-slugged-name"},
		{"leading and trailing junk", "  ***Exit Interview***  ", "exit-interview"},
		{"unicode stripped", "Café Münster", "caf-mnster"},
		{"all disallowed falls back", "!!!", "form"},
		{"empty falls back", "", "form"},
		{"digits kept", "Q3 2025 Review", "q3-2025-review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
			for _, r := range got {
				ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
				assert.True(t, ok, "slug %q contains disallowed rune %q", got, r)
			}
		})
	}
}

func TestGenerateFieldKey_NoCollision(t *testing.T) {
	existing := map[string]bool{}

	key := GenerateFieldKey(models.FieldText, existing)
	assert.Equal(t, "text_field", key)
}

func TestGenerateFieldKey_SuffixesOnCollision(t *testing.T) {
	existing := map[string]bool{}

	// Adding the same type in immediate succession never reuses a key
	first := GenerateFieldKey(models.FieldText, existing)
	existing[first] = true
	second := GenerateFieldKey(models.FieldText, existing)
	existing[second] = true
	third := GenerateFieldKey(models.FieldText, existing)

	assert.Equal(t, "text_field", first)
	assert.Equal(t, "text_field_2", second)
	assert.Equal(t, "text_field_3", third)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)
}

func TestGenerateFieldKey_IndependentPerType(t *testing.T) {
	existing := map[string]bool{"text_field": true}

	assert.Equal(t, "dropdown_field", GenerateFieldKey(models.FieldDropdown, existing))
}

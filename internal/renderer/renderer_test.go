package renderer

import (
	"testing"

	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section(id uuid.UUID, name string, order int) models.FormSection {
	return models.FormSection{ID: id, Name: name, SortOrder: order}
}

func field(key string, sectionID *uuid.UUID, order int, ft models.FieldType) models.FormField {
	return models.FormField{ID: uuid.New(), FieldKey: key, SectionID: sectionID, SortOrder: order, FieldType: ft}
}

func TestGroupFieldsBySection(t *testing.T) {
	secA := uuid.New()
	secB := uuid.New()
	sections := []models.FormSection{
		section(secB, "Experience", 2),
		section(secA, "Basics", 1),
	}
	fields := []models.FormField{
		field("notes", nil, 1, models.FieldTextarea),
		field("full_name", &secA, 0, models.FieldText),
		field("email", &secA, 1, models.FieldEmail),
		field("years", &secB, 0, models.FieldNumber),
		field("source", nil, 0, models.FieldDropdown),
	}

	groups := GroupFieldsBySection(sections, fields)
	require.Len(t, groups, 3)

	// unsectioned group comes first, ordered by sort_order
	assert.Nil(t, groups[0].Section)
	require.Len(t, groups[0].Fields, 2)
	assert.Equal(t, "source", groups[0].Fields[0].Field.FieldKey)
	assert.Equal(t, "notes", groups[0].Fields[1].Field.FieldKey)

	// sections follow their own sort order regardless of input order
	assert.Equal(t, "Basics", groups[1].Section.Name)
	assert.Equal(t, "Experience", groups[2].Section.Name)

	require.Len(t, groups[1].Fields, 2)
	assert.Equal(t, "full_name", groups[1].Fields[0].Field.FieldKey)
	assert.Equal(t, "email", groups[1].Fields[1].Field.FieldKey)

	// every field appears exactly once
	total := 0
	seen := map[string]int{}
	for _, g := range groups {
		for _, f := range g.Fields {
			total++
			seen[f.Field.FieldKey]++
		}
	}
	assert.Equal(t, len(fields), total)
	for key, n := range seen {
		assert.Equalf(t, 1, n, "field %s rendered %d times", key, n)
	}
}

func TestGroupFieldsBySectionOrphanedField(t *testing.T) {
	// a field pointing at a section that no longer exists still renders,
	// in the unsectioned group
	ghost := uuid.New()
	fields := []models.FormField{field("orphan", &ghost, 0, models.FieldText)}

	groups := GroupFieldsBySection(nil, fields)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Fields, 1)
	assert.Equal(t, "orphan", groups[0].Fields[0].Field.FieldKey)
}

func TestComponentTableCoversAllFieldTypes(t *testing.T) {
	for _, ft := range models.FieldTypes {
		c, ok := componentTable[ft]
		require.Truef(t, ok, "no component for field type %s", ft)
		assert.NotEmpty(t, c.Widget)
	}
}

func TestComponentForUnknownFallsBack(t *testing.T) {
	c := ComponentFor(models.FieldType("hologram"))
	assert.Equal(t, "input", c.Widget)
	assert.Equal(t, "text", c.InputType)
}

func TestBuildCanvasModes(t *testing.T) {
	def := models.FormDefinition{ID: uuid.New(), Name: "Screening", Slug: "screening"}
	fields := []models.FormField{
		field("email", nil, 0, models.FieldEmail),
		field("stage", nil, 1, models.FieldDropdown),
	}

	builder := BuildCanvas(def, nil, fields, ModeBuilder)
	require.Len(t, builder.Groups, 1)
	assert.Equal(t, 2, builder.FieldCount)
	for _, f := range builder.Groups[0].Fields {
		assert.True(t, f.Editable)
	}

	preview := BuildCanvas(def, nil, fields, ModePreview)
	for _, f := range preview.Groups[0].Fields {
		assert.False(t, f.Editable)
	}
}

// Package renderer turns a form schema into a render tree: an editable
// canvas for the builder or a read-only preview. Per-field-type UI behavior
// lives in a single type→component table; nothing else branches on field
// types.
package renderer

import (
	"sort"

	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
)

// Mode selects builder (editable) or preview (read-only) output
type Mode string

const (
	ModeBuilder Mode = "builder"
	ModePreview Mode = "preview"
)

// Component describes how a field type renders
type Component struct {
	Widget      string `json:"widget"`
	InputType   string `json:"input_type,omitempty"`
	Multiline   bool   `json:"multiline,omitempty"`
	HasOptions  bool   `json:"has_options,omitempty"`
	DefaultIcon string `json:"icon"`
}

// componentTable is the single mapping from field type to UI component.
// Every FieldType must appear here; ComponentFor falls back to plain text
// for values that slipped past validation.
var componentTable = map[models.FieldType]Component{
	models.FieldText:     {Widget: "input", InputType: "text", DefaultIcon: "type"},
	models.FieldTextarea: {Widget: "textarea", Multiline: true, DefaultIcon: "align-left"},
	models.FieldNumber:   {Widget: "input", InputType: "number", DefaultIcon: "hash"},
	models.FieldEmail:    {Widget: "input", InputType: "email", DefaultIcon: "mail"},
	models.FieldPhone:    {Widget: "input", InputType: "tel", DefaultIcon: "phone"},
	models.FieldDate:     {Widget: "datepicker", DefaultIcon: "calendar"},
	models.FieldDropdown: {Widget: "select", HasOptions: true, DefaultIcon: "chevron-down"},
	models.FieldCheckbox: {Widget: "checkbox-group", HasOptions: true, DefaultIcon: "check-square"},
	models.FieldRadio:    {Widget: "radio-group", HasOptions: true, DefaultIcon: "circle-dot"},
	models.FieldBoolean:  {Widget: "switch", DefaultIcon: "toggle-left"},
}

// ComponentFor resolves the UI component for a field type
func ComponentFor(fieldType models.FieldType) Component {
	if c, ok := componentTable[fieldType]; ok {
		return c
	}
	return componentTable[models.FieldText]
}

// FieldGroup is one rendered group: the unsectioned group (nil Section)
// or one declared section, with its fields in sort order.
type FieldGroup struct {
	Section *models.FormSection `json:"section"`
	Fields  []RenderedField     `json:"fields"`
}

// RenderedField pairs a field with its resolved component
type RenderedField struct {
	Field     models.FormField `json:"field"`
	Component Component        `json:"component"`
	Editable  bool             `json:"editable"`
}

// Canvas is the full render tree for a form
type Canvas struct {
	Form       models.FormDefinition `json:"form"`
	Mode       Mode                  `json:"mode"`
	Groups     []FieldGroup          `json:"groups"`
	FieldCount int                   `json:"field_count"`
}

// GroupFieldsBySection splits fields into ordered groups: the unsectioned
// group first, then declared sections by their own sort order. Every field
// lands in exactly one group; within a group order follows sort_order
// ascending. Fields referencing a section that is not in the given list
// fall back to the unsectioned group rather than disappearing.
func GroupFieldsBySection(sections []models.FormSection, fields []models.FormField) []FieldGroup {
	known := make(map[uuid.UUID]bool, len(sections))
	for _, s := range sections {
		known[s.ID] = true
	}

	bySection := make(map[uuid.UUID][]models.FormField)
	var unsectioned []models.FormField
	for _, f := range fields {
		if f.SectionID == nil || !known[*f.SectionID] {
			unsectioned = append(unsectioned, f)
			continue
		}
		bySection[*f.SectionID] = append(bySection[*f.SectionID], f)
	}

	ordered := make([]models.FormSection, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	groups := make([]FieldGroup, 0, len(ordered)+1)
	groups = append(groups, FieldGroup{Section: nil, Fields: renderFields(unsectioned)})
	for i := range ordered {
		section := ordered[i]
		groups = append(groups, FieldGroup{
			Section: &section,
			Fields:  renderFields(bySection[section.ID]),
		})
	}
	return groups
}

func renderFields(fields []models.FormField) []RenderedField {
	sorted := make([]models.FormField, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	rendered := make([]RenderedField, 0, len(sorted))
	for _, f := range sorted {
		rendered = append(rendered, RenderedField{
			Field:     f,
			Component: ComponentFor(f.FieldType),
		})
	}
	return rendered
}

// BuildCanvas produces the render tree for a definition. Builder mode marks
// every field editable; preview mode renders read-only.
func BuildCanvas(def models.FormDefinition, sections []models.FormSection, fields []models.FormField, mode Mode) *Canvas {
	groups := GroupFieldsBySection(sections, fields)

	editable := mode == ModeBuilder
	for gi := range groups {
		for fi := range groups[gi].Fields {
			groups[gi].Fields[fi].Editable = editable
		}
	}

	return &Canvas{
		Form:       def,
		Mode:       mode,
		Groups:     groups,
		FieldCount: len(fields),
	}
}

// Package forms - definition, section and field lifecycle
package forms

import (
	"time"

	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Service handles all form schema mutations. Every write goes straight to
// the store; nothing is retained locally on failure.
type Service struct {
	db *gorm.DB
}

// NewService creates a new form service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// =============================================================================
// DEFINITIONS
// =============================================================================

// CreateDefinitionInput carries the fields required to create a definition
type CreateDefinitionInput struct {
	Name            string
	Description     string
	VisibilityScope models.VisibilityScope
	AccessLevel     models.AccessLevel
	TenantID        *uuid.UUID
	RequiredModules []string
	Settings        models.JSONB
}

// validateScope enforces the scope invariant: exactly one of
// tenant_id / required_modules is meaningful, chosen by visibility_scope.
func validateScope(scope models.VisibilityScope, tenantID *uuid.UUID, requiredModules []string) error {
	if !scope.Valid() {
		return apperr.NewValidationError("visibility_scope", "unknown visibility scope")
	}
	switch scope {
	case models.ScopeTenantSpecific:
		if tenantID == nil {
			return apperr.NewValidationError("tenant_id", "tenant_specific forms require a tenant_id")
		}
		if len(requiredModules) > 0 {
			return apperr.NewValidationError("required_modules", "tenant_specific forms must not set required_modules")
		}
	case models.ScopeModuleSpecific:
		if len(requiredModules) == 0 {
			return apperr.NewValidationError("required_modules", "module_specific forms require at least one module")
		}
		if tenantID != nil {
			return apperr.NewValidationError("tenant_id", "module_specific forms must not set tenant_id")
		}
	case models.ScopeGlobal:
		if tenantID != nil || len(requiredModules) > 0 {
			return apperr.NewValidationError("visibility_scope", "global forms must not set tenant_id or required_modules")
		}
	}
	return nil
}

// CreateDefinition creates a new draft form definition
func (s *Service) CreateDefinition(input CreateDefinitionInput, userID *uuid.UUID) (*models.FormDefinition, error) {
	if input.Name == "" {
		return nil, apperr.NewValidationError("name", "name is required")
	}
	if err := validateScope(input.VisibilityScope, input.TenantID, input.RequiredModules); err != nil {
		return nil, err
	}

	accessLevel := input.AccessLevel
	if accessLevel == "" {
		accessLevel = models.AccessAuthenticated
	}
	if !accessLevel.Valid() {
		return nil, apperr.NewValidationError("access_level", "unknown access level")
	}

	def := models.FormDefinition{
		ID:              uuid.New(),
		Name:            input.Name,
		Slug:            Slugify(input.Name),
		Description:     input.Description,
		IsActive:        false,
		Settings:        input.Settings,
		VisibilityScope: input.VisibilityScope,
		AccessLevel:     accessLevel,
		TenantID:        input.TenantID,
		RequiredModules: pq.StringArray(input.RequiredModules),
	}

	if err := s.db.Create(&def).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}

	s.audit(def.TenantID, userID, "form_definition", def.ID, "create", nil, models.JSONB{"name": def.Name, "slug": def.Slug})
	return &def, nil
}

// GetDefinition loads a definition with its sections, fields and placements
func (s *Service) GetDefinition(id uuid.UUID) (*models.FormDefinition, error) {
	var def models.FormDefinition
	err := s.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Preload("Placements").
		First(&def, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFoundError("form definition")
		}
		return nil, apperr.NewInternalError(err)
	}
	return &def, nil
}

// ListDefinitions returns every definition a tenant could possibly see.
// The caller still filters through the visibility resolver; this only
// narrows the candidate set.
func (s *Service) ListDefinitions(tenantID uuid.UUID) ([]models.FormDefinition, error) {
	var defs []models.FormDefinition
	err := s.db.
		Where("visibility_scope = ? OR visibility_scope = ? OR tenant_id = ?",
			models.ScopeGlobal, models.ScopeModuleSpecific, tenantID).
		Order("created_at DESC").
		Find(&defs).Error
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return defs, nil
}

// UpdateDefinitionInput carries the optional patch fields for an update
type UpdateDefinitionInput struct {
	Name        *string
	Description *string
	AccessLevel *models.AccessLevel
	Settings    models.JSONB
}

// UpdateDefinition patches a definition. Renaming re-derives the slug.
func (s *Service) UpdateDefinition(id uuid.UUID, input UpdateDefinitionInput, userID *uuid.UUID) (*models.FormDefinition, error) {
	var def models.FormDefinition
	if err := s.db.First(&def, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("form definition")
	}

	old := models.JSONB{"name": def.Name, "access_level": def.AccessLevel}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperr.NewValidationError("name", "name cannot be empty")
		}
		def.Name = *input.Name
		def.Slug = Slugify(*input.Name)
	}
	if input.Description != nil {
		def.Description = *input.Description
	}
	if input.AccessLevel != nil {
		if !input.AccessLevel.Valid() {
			return nil, apperr.NewValidationError("access_level", "unknown access level")
		}
		def.AccessLevel = *input.AccessLevel
	}
	if input.Settings != nil {
		def.Settings = input.Settings
	}

	if err := s.db.Save(&def).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}

	s.audit(def.TenantID, userID, "form_definition", def.ID, "update", old, models.JSONB{"name": def.Name, "access_level": def.AccessLevel})
	return &def, nil
}

// SetActive flips the draft/published state. Publishing requires only that
// the definition exists (it always has a name); a form with zero fields may
// be published.
func (s *Service) SetActive(id uuid.UUID, active bool, userID *uuid.UUID) (*models.FormDefinition, error) {
	var def models.FormDefinition
	if err := s.db.First(&def, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("form definition")
	}

	if def.IsActive == active {
		return &def, nil
	}

	def.IsActive = active
	if err := s.db.Save(&def).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}

	action := "unpublish"
	if active {
		action = "publish"
	}
	s.audit(def.TenantID, userID, "form_definition", def.ID, action, nil, models.JSONB{"is_active": active})
	return &def, nil
}

// DeleteDefinition removes a definition and everything it owns: placements,
// fields, sections, workflows and their steps, all in one transaction.
func (s *Service) DeleteDefinition(id uuid.UUID, userID *uuid.UUID) error {
	var def models.FormDefinition
	if err := s.db.First(&def, "id = ?", id).Error; err != nil {
		return apperr.NewNotFoundError("form definition")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var workflowIDs []uuid.UUID
		if err := tx.Model(&models.FormWorkflow{}).Where("form_id = ?", id).Pluck("id", &workflowIDs).Error; err != nil {
			return err
		}
		if len(workflowIDs) > 0 {
			if err := tx.Where("workflow_id IN ?", workflowIDs).Delete(&models.WorkflowStep{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", id).Delete(&models.FormWorkflow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&models.FormPlacement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&models.FormField{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", id).Delete(&models.FormSection{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FormDefinition{}, "id = ?", id).Error
	})
	if err != nil {
		return apperr.NewInternalError(err)
	}

	s.audit(def.TenantID, userID, "form_definition", id, "delete", models.JSONB{"name": def.Name}, nil)
	return nil
}

// =============================================================================
// SECTIONS
// =============================================================================

// CreateSection appends a section to a definition
func (s *Service) CreateSection(formID uuid.UUID, name, description string, collapsible bool) (*models.FormSection, error) {
	if name == "" {
		return nil, apperr.NewValidationError("name", "name is required")
	}
	if err := s.db.First(&models.FormDefinition{}, "id = ?", formID).Error; err != nil {
		return nil, apperr.NewNotFoundError("form definition")
	}

	var maxOrder int
	s.db.Model(&models.FormSection{}).Where("form_id = ?", formID).
		Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder)

	section := models.FormSection{
		ID:            uuid.New(),
		FormID:        formID,
		Name:          name,
		Description:   description,
		IsCollapsible: collapsible,
		SortOrder:     maxOrder + 1,
	}

	if err := s.db.Create(&section).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &section, nil
}

// UpdateSectionInput carries the optional patch fields for a section
type UpdateSectionInput struct {
	Name          *string
	Description   *string
	IsCollapsible *bool
	SortOrder     *int
}

// UpdateSection patches a section
func (s *Service) UpdateSection(id uuid.UUID, input UpdateSectionInput) (*models.FormSection, error) {
	var section models.FormSection
	if err := s.db.First(&section, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("form section")
	}

	if input.Name != nil {
		section.Name = *input.Name
	}
	if input.Description != nil {
		section.Description = *input.Description
	}
	if input.IsCollapsible != nil {
		section.IsCollapsible = *input.IsCollapsible
	}
	if input.SortOrder != nil {
		section.SortOrder = *input.SortOrder
	}

	if err := s.db.Save(&section).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &section, nil
}

// DeleteSection removes a section. Its fields survive and move to the
// unsectioned group.
func (s *Service) DeleteSection(id uuid.UUID) error {
	var section models.FormSection
	if err := s.db.First(&section, "id = ?", id).Error; err != nil {
		return apperr.NewNotFoundError("form section")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FormField{}).Where("section_id = ?", id).
			Update("section_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FormSection{}, "id = ?", id).Error
	})
	if err != nil {
		return apperr.NewInternalError(err)
	}
	return nil
}

// =============================================================================
// FIELDS
// =============================================================================

// AddField creates a field with a generated, collision-free field_key,
// required defaulting to false, appended at the end of its target group.
// On store failure nothing is mutated locally; the error is returned.
func (s *Service) AddField(formID uuid.UUID, sectionID *uuid.UUID, fieldType models.FieldType, name string) (*models.FormField, error) {
	if !fieldType.Valid() {
		return nil, apperr.NewValidationError("field_type", "unknown field type")
	}
	if err := s.db.First(&models.FormDefinition{}, "id = ?", formID).Error; err != nil {
		return nil, apperr.NewNotFoundError("form definition")
	}
	if sectionID != nil {
		var section models.FormSection
		if err := s.db.First(&section, "id = ? AND form_id = ?", *sectionID, formID).Error; err != nil {
			return nil, apperr.NewNotFoundError("form section")
		}
	}

	var keys []string
	if err := s.db.Model(&models.FormField{}).Where("form_id = ?", formID).
		Pluck("field_key", &keys).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	existing := make(map[string]bool, len(keys))
	for _, k := range keys {
		existing[k] = true
	}

	var maxOrder int
	groupQuery := s.db.Model(&models.FormField{}).Where("form_id = ?", formID)
	if sectionID == nil {
		groupQuery = groupQuery.Where("section_id IS NULL")
	} else {
		groupQuery = groupQuery.Where("section_id = ?", *sectionID)
	}
	groupQuery.Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder)

	if name == "" {
		name = "New Field"
	}

	field := models.FormField{
		ID:        uuid.New(),
		FormID:    formID,
		SectionID: sectionID,
		Name:      name,
		FieldKey:  GenerateFieldKey(fieldType, existing),
		FieldType: fieldType,
		Required:  false,
		SortOrder: maxOrder + 1,
	}

	if err := s.db.Create(&field).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &field, nil
}

// UpdateFieldInput carries the optional patch fields for a form field
type UpdateFieldInput struct {
	Name      *string
	Required  *bool
	SortOrder *int
	SectionID *uuid.UUID
	Settings  models.JSONB
}

// UpdateField patches a field. The field_key is immutable once generated.
func (s *Service) UpdateField(id uuid.UUID, input UpdateFieldInput) (*models.FormField, error) {
	var field models.FormField
	if err := s.db.First(&field, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("form field")
	}

	if input.Name != nil {
		field.Name = *input.Name
	}
	if input.Required != nil {
		field.Required = *input.Required
	}
	if input.SortOrder != nil {
		field.SortOrder = *input.SortOrder
	}
	if input.SectionID != nil {
		var section models.FormSection
		if err := s.db.First(&section, "id = ? AND form_id = ?", *input.SectionID, field.FormID).Error; err != nil {
			return nil, apperr.NewNotFoundError("form section")
		}
		field.SectionID = input.SectionID
	}
	if input.Settings != nil {
		field.Settings = input.Settings
	}

	if err := s.db.Save(&field).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &field, nil
}

// DeleteField removes a field
func (s *Service) DeleteField(id uuid.UUID) error {
	result := s.db.Delete(&models.FormField{}, "id = ?", id)
	if result.Error != nil {
		return apperr.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFoundError("form field")
	}
	return nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *Service) audit(tenantID *uuid.UUID, userID *uuid.UUID, resource string, recordID uuid.UUID, action string, oldValues, newValues models.JSONB) {
	entry := models.AuditLog{
		ID:        uuid.New(),
		UserID:    userID,
		Resource:  resource,
		RecordID:  &recordID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
		CreatedAt: time.Now(),
	}
	if tenantID != nil {
		entry.TenantID = *tenantID
	}
	// Audit failures are not surfaced to the caller
	s.db.Create(&entry)
}

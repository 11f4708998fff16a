// Package forms - workflow and automation rule lifecycle
package forms

import (
	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StepInput describes one step when creating or replacing a workflow
type StepInput struct {
	StepType models.StepType `json:"step_type"`
	Action   string          `json:"action"`
	Config   models.JSONB    `json:"config"`
}

// CreateWorkflowInput carries the fields required to create a workflow
type CreateWorkflowInput struct {
	FormID            uuid.UUID
	Name              string
	Description       string
	TriggerConditions models.JSONB
	Steps             []StepInput
}

// CreateWorkflow creates a workflow and its ordered steps
func (s *Service) CreateWorkflow(input CreateWorkflowInput) (*models.FormWorkflow, error) {
	if input.Name == "" {
		return nil, apperr.NewValidationError("name", "name is required")
	}
	for _, step := range input.Steps {
		if !step.StepType.Valid() {
			return nil, apperr.NewValidationError("step_type", "unknown step type")
		}
	}
	if err := s.db.First(&models.FormDefinition{}, "id = ?", input.FormID).Error; err != nil {
		return nil, apperr.NewNotFoundError("form definition")
	}

	workflow := models.FormWorkflow{
		ID:                uuid.New(),
		FormID:            input.FormID,
		Name:              input.Name,
		Description:       input.Description,
		TriggerConditions: input.TriggerConditions,
		IsActive:          true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workflow).Error; err != nil {
			return err
		}
		for i, step := range input.Steps {
			ws := models.WorkflowStep{
				ID:         uuid.New(),
				WorkflowID: workflow.ID,
				StepType:   step.StepType,
				Action:     step.Action,
				Config:     step.Config,
				OrderIndex: i,
			}
			if err := tx.Create(&ws).Error; err != nil {
				return err
			}
			workflow.Steps = append(workflow.Steps, ws)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &workflow, nil
}

// GetWorkflow loads a workflow with steps in execution order
func (s *Service) GetWorkflow(id uuid.UUID) (*models.FormWorkflow, error) {
	var workflow models.FormWorkflow
	err := s.db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index")
		}).
		First(&workflow, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NewNotFoundError("workflow")
		}
		return nil, apperr.NewInternalError(err)
	}
	return &workflow, nil
}

// ListWorkflows returns all workflows attached to a form
func (s *Service) ListWorkflows(formID uuid.UUID) ([]models.FormWorkflow, error) {
	var workflows []models.FormWorkflow
	err := s.db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index")
		}).
		Where("form_id = ?", formID).
		Order("created_at").
		Find(&workflows).Error
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return workflows, nil
}

// SetWorkflowActive toggles a workflow
func (s *Service) SetWorkflowActive(id uuid.UUID, active bool) (*models.FormWorkflow, error) {
	var workflow models.FormWorkflow
	if err := s.db.First(&workflow, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("workflow")
	}
	workflow.IsActive = active
	if err := s.db.Save(&workflow).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &workflow, nil
}

// DeleteWorkflow removes a workflow and its steps
func (s *Service) DeleteWorkflow(id uuid.UUID) error {
	var workflow models.FormWorkflow
	if err := s.db.First(&workflow, "id = ?", id).Error; err != nil {
		return apperr.NewNotFoundError("workflow")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workflow_id = ?", id).Delete(&models.WorkflowStep{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FormWorkflow{}, "id = ?", id).Error
	})
	if err != nil {
		return apperr.NewInternalError(err)
	}
	return nil
}

// =============================================================================
// AUTOMATION RULES
// =============================================================================

// CreateRuleInput carries the fields required to create an automation rule
type CreateRuleInput struct {
	TenantID      uuid.UUID
	Name          string
	Trigger       models.TriggerType
	TriggerConfig models.JSONB
	Conditions    models.RuleConditions
	Actions       models.RuleActions
	Priority      int
}

// CreateRule creates an automation rule
func (s *Service) CreateRule(input CreateRuleInput) (*models.AutomationRule, error) {
	if input.Name == "" {
		return nil, apperr.NewValidationError("name", "name is required")
	}
	if !input.Trigger.Valid() {
		return nil, apperr.NewValidationError("trigger", "unknown trigger type")
	}
	for _, cond := range input.Conditions {
		if !cond.Operator.Valid() {
			return nil, apperr.NewValidationError("conditions", "unknown condition operator")
		}
	}

	rule := models.AutomationRule{
		ID:            uuid.New(),
		TenantID:      input.TenantID,
		Name:          input.Name,
		Trigger:       input.Trigger,
		TriggerConfig: input.TriggerConfig,
		Conditions:    input.Conditions,
		Actions:       input.Actions,
		Priority:      input.Priority,
		IsActive:      true,
	}

	if err := s.db.Create(&rule).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &rule, nil
}

// ListRules returns a tenant's rules ordered by priority descending
func (s *Service) ListRules(tenantID uuid.UUID) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	err := s.db.Where("tenant_id = ?", tenantID).
		Order("priority DESC, created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return rules, nil
}

// SetRuleActive toggles an automation rule
func (s *Service) SetRuleActive(id uuid.UUID, active bool) (*models.AutomationRule, error) {
	var rule models.AutomationRule
	if err := s.db.First(&rule, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("automation rule")
	}
	rule.IsActive = active
	if err := s.db.Save(&rule).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &rule, nil
}

// DeleteRule removes an automation rule
func (s *Service) DeleteRule(id uuid.UUID) error {
	result := s.db.Delete(&models.AutomationRule{}, "id = ?", id)
	if result.Error != nil {
		return apperr.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFoundError("automation rule")
	}
	return nil
}

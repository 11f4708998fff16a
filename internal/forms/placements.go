// Package forms - placement lifecycle
package forms

import (
	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
)

// CreatePlacementInput carries the fields required to place a form
type CreatePlacementInput struct {
	FormID            uuid.UUID
	DeploymentPointID uuid.UUID
	TenantID          *uuid.UUID
	Priority          int
	Configuration     models.JSONB
}

// CreatePlacement assigns a form to a deployment point
func (s *Service) CreatePlacement(input CreatePlacementInput) (*models.FormPlacement, error) {
	if input.Priority < 0 {
		return nil, apperr.NewValidationError("priority", "priority must be >= 0")
	}
	if err := s.db.First(&models.FormDefinition{}, "id = ?", input.FormID).Error; err != nil {
		return nil, apperr.NewNotFoundError("form definition")
	}
	if err := s.db.First(&models.DeploymentPoint{}, "id = ?", input.DeploymentPointID).Error; err != nil {
		return nil, apperr.NewNotFoundError("deployment point")
	}

	placement := models.FormPlacement{
		ID:                uuid.New(),
		FormID:            input.FormID,
		DeploymentPointID: input.DeploymentPointID,
		TenantID:          input.TenantID,
		Priority:          input.Priority,
		Configuration:     input.Configuration,
		Status:            models.PlacementActive,
	}

	if err := s.db.Create(&placement).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &placement, nil
}

// UpdatePlacementInput carries the optional patch fields for a placement
type UpdatePlacementInput struct {
	Priority      *int
	Configuration models.JSONB
	Status        *models.PlacementStatus
}

// UpdatePlacement patches a placement
func (s *Service) UpdatePlacement(id uuid.UUID, input UpdatePlacementInput) (*models.FormPlacement, error) {
	var placement models.FormPlacement
	if err := s.db.First(&placement, "id = ?", id).Error; err != nil {
		return nil, apperr.NewNotFoundError("form placement")
	}

	if input.Priority != nil {
		if *input.Priority < 0 {
			return nil, apperr.NewValidationError("priority", "priority must be >= 0")
		}
		placement.Priority = *input.Priority
	}
	if input.Configuration != nil {
		placement.Configuration = input.Configuration
	}
	if input.Status != nil {
		if *input.Status != models.PlacementActive && *input.Status != models.PlacementInactive {
			return nil, apperr.NewValidationError("status", "status must be active or inactive")
		}
		placement.Status = *input.Status
	}

	if err := s.db.Save(&placement).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return &placement, nil
}

// DeletePlacement removes a placement. Placements have an independent
// lifecycle; the form is untouched.
func (s *Service) DeletePlacement(id uuid.UUID) error {
	result := s.db.Delete(&models.FormPlacement{}, "id = ?", id)
	if result.Error != nil {
		return apperr.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFoundError("form placement")
	}
	return nil
}

// ListPlacements returns placements for a form
func (s *Service) ListPlacements(formID uuid.UUID) ([]models.FormPlacement, error) {
	var placements []models.FormPlacement
	err := s.db.Preload("DeploymentPoint").
		Where("form_id = ?", formID).
		Order("priority DESC, created_at ASC").
		Find(&placements).Error
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return placements, nil
}

// ListDeploymentPoints returns the deployment point catalog
func (s *Service) ListDeploymentPoints() ([]models.DeploymentPoint, error) {
	var points []models.DeploymentPoint
	if err := s.db.Order("location, name").Find(&points).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	return points, nil
}

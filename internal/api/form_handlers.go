// Package api - Form builder, placement and workflow handlers
package api

import (
	"net/http"

	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/forms"
	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/renderer"
	"github.com/arvena/talentd/internal/visibility"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// permittedRolesFor reads the role policy of a role_based form from its
// settings. A role_based form without a configured set denies everyone.
func permittedRolesFor(def *models.FormDefinition) []string {
	items, ok := def.Settings["permitted_roles"].([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// canInteract decides whether the caller may submit or preview a form.
// Roles are re-resolved from the store when the caller is known, so role
// revocations take effect without waiting for token expiry.
func (h *Handler) canInteract(c *gin.Context, def *models.FormDefinition) bool {
	rc := requestContext(c)
	if id := userID(c); id != nil {
		if roles, err := h.roles.GetUserRoles(rc.TenantID, *id); err == nil {
			rc.Roles = roles
		}
	}
	return visibility.CanInteract(def, rc, permittedRolesFor(def))
}

// =============================================================================
// FORM DEFINITIONS
// =============================================================================

// CreateFormRequest is the payload for creating a form definition
type CreateFormRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Description     string                 `json:"description"`
	VisibilityScope models.VisibilityScope `json:"visibility_scope" binding:"required"`
	AccessLevel     models.AccessLevel     `json:"access_level"`
	TenantID        *uuid.UUID             `json:"tenant_id"`
	RequiredModules []string               `json:"required_modules"`
	Settings        models.JSONB           `json:"settings"`
}

// CreateForm creates a draft form definition
// POST /api/forms
func (h *Handler) CreateForm(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	def, err := h.forms.CreateDefinition(forms.CreateDefinitionInput{
		Name:            req.Name,
		Description:     req.Description,
		VisibilityScope: req.VisibilityScope,
		AccessLevel:     req.AccessLevel,
		TenantID:        req.TenantID,
		RequiredModules: req.RequiredModules,
		Settings:        req.Settings,
	}, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, def)
}

// ListForms returns the definitions a tenant may see
// GET /api/forms
func (h *Handler) ListForms(c *gin.Context) {
	defs, err := h.forms.ListDefinitions(tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": defs, "total": len(defs)})
}

// GetForm returns a definition with its sections, fields and placements
// GET /api/forms/:id
func (h *Handler) GetForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	def, err := h.forms.GetDefinition(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// UpdateFormRequest is the patch payload for a definition
type UpdateFormRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	AccessLevel *models.AccessLevel `json:"access_level"`
	Settings    models.JSONB        `json:"settings"`
}

// UpdateForm patches a definition
// PUT /api/forms/:id
func (h *Handler) UpdateForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	def, err := h.forms.UpdateDefinition(id, forms.UpdateDefinitionInput{
		Name:        req.Name,
		Description: req.Description,
		AccessLevel: req.AccessLevel,
		Settings:    req.Settings,
	}, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// DeleteForm deletes a definition and everything hanging off it
// DELETE /api/forms/:id
func (h *Handler) DeleteForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.forms.DeleteDefinition(id, userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// PublishForm activates a definition
// POST /api/forms/:id/publish
func (h *Handler) PublishForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	def, err := h.forms.SetActive(id, true, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// UnpublishForm deactivates a definition
// POST /api/forms/:id/unpublish
func (h *Handler) UnpublishForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	def, err := h.forms.SetActive(id, false, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// GetCanvas returns the render tree for the builder or preview
// GET /api/forms/:id/canvas?mode=builder|preview
func (h *Handler) GetCanvas(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	def, err := h.forms.GetDefinition(id)
	if err != nil {
		respondError(c, err)
		return
	}

	mode := renderer.Mode(c.DefaultQuery("mode", string(renderer.ModeBuilder)))
	if mode != renderer.ModeBuilder && mode != renderer.ModePreview {
		respondError(c, apperr.NewBadRequestError("mode must be builder or preview"))
		return
	}

	// Preview renders the form as its audience sees it, so the form's own
	// access level applies; builder mode is already role gated.
	if mode == renderer.ModePreview && !h.canInteract(c, def) {
		respondError(c, apperr.NewPermissionDeniedError("preview", def.Slug))
		return
	}

	canvas := renderer.BuildCanvas(*def, def.Sections, def.Fields, mode)
	c.JSON(http.StatusOK, canvas)
}

// =============================================================================
// SECTIONS & FIELDS
// =============================================================================

// CreateSectionRequest is the payload for adding a section
type CreateSectionRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	IsCollapsible bool   `json:"is_collapsible"`
}

// CreateSection appends a section to a form
// POST /api/forms/:id/sections
func (h *Handler) CreateSection(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	section, err := h.forms.CreateSection(formID, req.Name, req.Description, req.IsCollapsible)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

// UpdateSectionRequest is the patch payload for a section
type UpdateSectionRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	IsCollapsible *bool   `json:"is_collapsible"`
	SortOrder     *int    `json:"sort_order"`
}

// UpdateSection patches a section
// PUT /api/sections/:id
func (h *Handler) UpdateSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	section, err := h.forms.UpdateSection(id, forms.UpdateSectionInput{
		Name:          req.Name,
		Description:   req.Description,
		IsCollapsible: req.IsCollapsible,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// DeleteSection removes a section; its fields become unsectioned
// DELETE /api/sections/:id
func (h *Handler) DeleteSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.forms.DeleteSection(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CreateFieldRequest is the payload for adding a field
type CreateFieldRequest struct {
	FieldType models.FieldType `json:"field_type" binding:"required"`
	Name      string           `json:"name"`
	SectionID *uuid.UUID       `json:"section_id"`
}

// CreateField appends a field to a form
// POST /api/forms/:id/fields
func (h *Handler) CreateField(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	field, err := h.forms.AddField(formID, req.SectionID, req.FieldType, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, field)
}

// UpdateFieldRequest is the patch payload for a field
type UpdateFieldRequest struct {
	Name      *string      `json:"name"`
	Required  *bool        `json:"required"`
	SortOrder *int         `json:"sort_order"`
	SectionID *uuid.UUID   `json:"section_id"`
	Settings  models.JSONB `json:"settings"`
}

// UpdateField patches a field
// PUT /api/fields/:id
func (h *Handler) UpdateField(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	field, err := h.forms.UpdateField(id, forms.UpdateFieldInput{
		Name:      req.Name,
		Required:  req.Required,
		SortOrder: req.SortOrder,
		SectionID: req.SectionID,
		Settings:  req.Settings,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, field)
}

// DeleteField removes a field
// DELETE /api/fields/:id
func (h *Handler) DeleteField(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.forms.DeleteField(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListFieldTypes returns the supported field types with their components
// GET /api/field-types
func (h *Handler) ListFieldTypes(c *gin.Context) {
	out := make([]gin.H, 0, len(models.FieldTypes))
	for _, ft := range models.FieldTypes {
		out = append(out, gin.H{"type": ft, "component": renderer.ComponentFor(ft)})
	}
	c.JSON(http.StatusOK, gin.H{"field_types": out})
}

// =============================================================================
// PLACEMENTS & RESOLUTION
// =============================================================================

// CreatePlacementRequest is the payload for placing a form
type CreatePlacementRequest struct {
	DeploymentPointID uuid.UUID    `json:"deployment_point_id" binding:"required"`
	TenantID          *uuid.UUID   `json:"tenant_id"`
	Priority          int          `json:"priority"`
	Configuration     models.JSONB `json:"configuration"`
}

// CreatePlacement places a form at a deployment point
// POST /api/forms/:id/placements
func (h *Handler) CreatePlacement(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CreatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	placement, err := h.forms.CreatePlacement(forms.CreatePlacementInput{
		FormID:            formID,
		DeploymentPointID: req.DeploymentPointID,
		TenantID:          req.TenantID,
		Priority:          req.Priority,
		Configuration:     req.Configuration,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placement)
}

// ListFormPlacements returns a form's placements in resolution order
// GET /api/forms/:id/placements
func (h *Handler) ListFormPlacements(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	placements, err := h.forms.ListPlacements(formID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements})
}

// UpdatePlacementRequest is the patch payload for a placement
type UpdatePlacementRequest struct {
	Priority      *int                    `json:"priority"`
	Configuration models.JSONB            `json:"configuration"`
	Status        *models.PlacementStatus `json:"status"`
}

// UpdatePlacement patches a placement
// PUT /api/placements/:id
func (h *Handler) UpdatePlacement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	placement, err := h.forms.UpdatePlacement(id, forms.UpdatePlacementInput{
		Priority:      req.Priority,
		Configuration: req.Configuration,
		Status:        req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, placement)
}

// DeletePlacement removes a placement
// DELETE /api/placements/:id
func (h *Handler) DeletePlacement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.forms.DeletePlacement(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListDeploymentPoints returns the deployment point catalog
// GET /api/deployment-points
func (h *Handler) ListDeploymentPoints(c *gin.Context) {
	points, err := h.forms.ListDeploymentPoints()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deployment_points": points})
}

// ResolveForms returns the forms visible to the caller at a deployment
// point, highest priority first
// GET /api/resolve/:point_id
func (h *Handler) ResolveForms(c *gin.Context) {
	pointID, ok := parseID(c, "point_id")
	if !ok {
		return
	}
	resolved, err := h.resolver.VisibleForms(pointID, requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]gin.H, 0, len(resolved))
	for _, rf := range resolved {
		form := rf.Form
		items = append(items, gin.H{
			"form":         form,
			"placement":    rf.Placement,
			"can_interact": h.canInteract(c, &form),
		})
	}
	c.JSON(http.StatusOK, gin.H{"forms": items})
}

// ResolveFormPlacements returns the active placements for one form at a
// deployment point under the caller's tenant, highest priority first
// GET /api/forms/:id/resolve/:point_id
func (h *Handler) ResolveFormPlacements(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	pointID, ok := parseID(c, "point_id")
	if !ok {
		return
	}
	placements, err := h.resolver.ResolvePlacements(formID, pointID, requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements})
}

// =============================================================================
// WORKFLOWS & AUTOMATION RULES
// =============================================================================

// CreateWorkflowRequest is the payload for attaching a workflow to a form
type CreateWorkflowRequest struct {
	Name              string            `json:"name" binding:"required"`
	Description       string            `json:"description"`
	TriggerConditions models.JSONB      `json:"trigger_conditions"`
	Steps             []forms.StepInput `json:"steps" binding:"required"`
}

// CreateWorkflow creates a workflow with its ordered steps
// POST /api/forms/:id/workflows
func (h *Handler) CreateWorkflow(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	workflow, err := h.forms.CreateWorkflow(forms.CreateWorkflowInput{
		FormID:            formID,
		Name:              req.Name,
		Description:       req.Description,
		TriggerConditions: req.TriggerConditions,
		Steps:             req.Steps,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workflow)
}

// ListWorkflows returns a form's workflows
// GET /api/forms/:id/workflows
func (h *Handler) ListWorkflows(c *gin.Context) {
	formID, ok := parseID(c, "id")
	if !ok {
		return
	}
	workflows, err := h.forms.ListWorkflows(formID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}

// GetWorkflow returns one workflow with its steps
// GET /api/workflows/:id
func (h *Handler) GetWorkflow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	workflow, err := h.forms.GetWorkflow(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflow)
}

// SetWorkflowActive flips a workflow's active flag
// POST /api/workflows/:id/activate  POST /api/workflows/:id/deactivate
func (h *Handler) SetWorkflowActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		workflow, err := h.forms.SetWorkflowActive(id, active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow)
	}
}

// DeleteWorkflow removes a workflow and its steps
// DELETE /api/workflows/:id
func (h *Handler) DeleteWorkflow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.forms.DeleteWorkflow(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RunWorkflowRequest carries the record a manual run executes against
type RunWorkflowRequest struct {
	Record map[string]interface{} `json:"record"`
}

// RunWorkflow executes a workflow against a caller-supplied record
// POST /api/workflows/:id/run
func (h *Handler) RunWorkflow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	workflow, err := h.forms.GetWorkflow(id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req RunWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}

	result, err := h.runner.Run(c.Request.Context(), *workflow, req.Record)
	if err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateRuleRequest is the payload for creating an automation rule
type CreateRuleRequest struct {
	Name          string                `json:"name" binding:"required"`
	Trigger       models.TriggerType    `json:"trigger" binding:"required"`
	TriggerConfig models.JSONB          `json:"trigger_config"`
	Conditions    models.RuleConditions `json:"conditions"`
	Actions       models.RuleActions    `json:"actions"`
	Priority      int                   `json:"priority"`
}

// CreateRule creates an automation rule for the tenant
// POST /api/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	rule, err := h.forms.CreateRule(forms.CreateRuleInput{
		TenantID:      tenantID(c),
		Name:          req.Name,
		Trigger:       req.Trigger,
		TriggerConfig: req.TriggerConfig,
		Conditions:    req.Conditions,
		Actions:       req.Actions,
		Priority:      req.Priority,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListRules returns the tenant's rules in dispatch order
// GET /api/rules
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.forms.ListRules(tenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// SetRuleActive flips a rule's active flag
// POST /api/rules/:id/activate  POST /api/rules/:id/deactivate
func (h *Handler) SetRuleActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		rule, err := h.forms.SetRuleActive(id, active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

// DeleteRule removes a rule
// DELETE /api/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.forms.DeleteRule(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

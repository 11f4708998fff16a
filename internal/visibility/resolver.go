// Package visibility decides which forms are eligible to be shown for a
// request context, and in what order placements compete for a deployment
// point.
package visibility

import (
	"fmt"
	"sort"

	"github.com/arvena/talentd/internal/auth"
	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestContext carries everything the resolver needs about the caller.
// It is passed explicitly to every resolver function; nothing here reads
// ambient tenant state.
type RequestContext struct {
	TenantID       uuid.UUID
	EnabledModules []string
	Authenticated  bool
	Roles          []string
}

// HasModule reports whether a module code is enabled in this context
func (ctx RequestContext) HasModule(code string) bool {
	for _, m := range ctx.EnabledModules {
		if m == code {
			return true
		}
	}
	return false
}

// IsVisible decides whether a form may be listed in the given context.
//
// Module-specific visibility is ANY-of: the form is visible when at least
// one of its required modules is enabled. Malformed forms (tenant_specific
// with no tenant, module_specific with no modules) fail closed: they are
// invisible everywhere rather than an error.
func IsVisible(form *models.FormDefinition, ctx RequestContext) bool {
	if form == nil || !form.IsActive {
		return false
	}

	switch form.VisibilityScope {
	case models.ScopeGlobal:
		return true
	case models.ScopeTenantSpecific:
		if form.TenantID == nil {
			return false
		}
		return *form.TenantID == ctx.TenantID
	case models.ScopeModuleSpecific:
		if len(form.RequiredModules) == 0 {
			return false
		}
		for _, required := range form.RequiredModules {
			if ctx.HasModule(required) {
				return true
			}
		}
		return false
	default:
		// Unknown scope is treated like a malformed form
		return false
	}
}

// CanInteract decides whether the caller may submit or edit a form.
// Access level gates interaction only; listing is governed by IsVisible.
// permittedRoles is supplied by the external authorization collaborator and
// only consulted for role_based forms.
func CanInteract(form *models.FormDefinition, ctx RequestContext, permittedRoles []string) bool {
	if form == nil {
		return false
	}

	switch form.AccessLevel {
	case models.AccessPublic:
		return true
	case models.AccessAuthenticated:
		return ctx.Authenticated
	case models.AccessRoleBased:
		return ctx.Authenticated && auth.HasAnyRole(ctx.Roles, permittedRoles)
	default:
		return false
	}
}

// SortPlacements orders placements by priority descending, ties broken by
// created_at ascending. The sort is stable so repeated calls produce the
// same order.
func SortPlacements(placements []models.FormPlacement) {
	sort.SliceStable(placements, func(i, j int) bool {
		if placements[i].Priority != placements[j].Priority {
			return placements[i].Priority > placements[j].Priority
		}
		return placements[i].CreatedAt.Before(placements[j].CreatedAt)
	})
}

// Resolver answers visibility questions against the store
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a new resolver
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolvePlacements returns the active placements for a form at a deployment
// point, filtered to the caller's tenant and deterministically ordered.
func (r *Resolver) ResolvePlacements(formID, deploymentPointID uuid.UUID, ctx RequestContext) ([]models.FormPlacement, error) {
	var placements []models.FormPlacement
	err := r.db.
		Where("form_id = ? AND deployment_point_id = ? AND status = ?",
			formID, deploymentPointID, models.PlacementActive).
		Where("tenant_id IS NULL OR tenant_id = ?", ctx.TenantID).
		Find(&placements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve placements: %w", err)
	}

	SortPlacements(placements)
	return placements, nil
}

// VisibleForms returns every form that would render at a deployment point
// for the context, annotated with its winning placement, ordered by that
// placement's priority.
type ResolvedForm struct {
	Form      models.FormDefinition `json:"form"`
	Placement models.FormPlacement  `json:"placement"`
}

// VisibleForms resolves all forms competing for a deployment point
func (r *Resolver) VisibleForms(deploymentPointID uuid.UUID, ctx RequestContext) ([]ResolvedForm, error) {
	var placements []models.FormPlacement
	err := r.db.
		Preload("Form").
		Where("deployment_point_id = ? AND status = ?", deploymentPointID, models.PlacementActive).
		Where("tenant_id IS NULL OR tenant_id = ?", ctx.TenantID).
		Find(&placements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}

	SortPlacements(placements)

	resolved := make([]ResolvedForm, 0, len(placements))
	seen := make(map[uuid.UUID]bool)
	for _, p := range placements {
		if p.Form == nil || seen[p.FormID] {
			continue
		}
		if !IsVisible(p.Form, ctx) {
			continue
		}
		seen[p.FormID] = true
		form := *p.Form
		p.Form = nil
		resolved = append(resolved, ResolvedForm{Form: form, Placement: p})
	}
	return resolved, nil
}

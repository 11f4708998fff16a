package visibility

import (
	"testing"
	"time"

	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeForm(scope models.VisibilityScope) *models.FormDefinition {
	return &models.FormDefinition{
		ID:              uuid.New(),
		Name:            "Screening Questions",
		Slug:            "screening-questions",
		IsActive:        true,
		VisibilityScope: scope,
		AccessLevel:     models.AccessAuthenticated,
	}
}

func TestIsVisible_InactiveForm(t *testing.T) {
	form := activeForm(models.ScopeGlobal)
	form.IsActive = false

	assert.False(t, IsVisible(form, RequestContext{TenantID: uuid.New()}))
}

func TestIsVisible_Global(t *testing.T) {
	form := activeForm(models.ScopeGlobal)

	assert.True(t, IsVisible(form, RequestContext{TenantID: uuid.New()}))
}

func TestIsVisible_TenantSpecific(t *testing.T) {
	tenantID := uuid.New()
	otherID := uuid.New()

	form := activeForm(models.ScopeTenantSpecific)
	form.TenantID = &tenantID

	assert.True(t, IsVisible(form, RequestContext{TenantID: tenantID}))
	assert.False(t, IsVisible(form, RequestContext{TenantID: otherID}))
}

func TestIsVisible_ModuleSpecificAnyOf(t *testing.T) {
	form := activeForm(models.ScopeModuleSpecific)
	form.RequiredModules = []string{"ats_core"}

	tests := []struct {
		name    string
		enabled []string
		want    bool
	}{
		{"one of required enabled", []string{"ats_core", "people"}, true},
		{"required not enabled", []string{"people"}, false},
		{"no modules enabled", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := RequestContext{TenantID: uuid.New(), EnabledModules: tt.enabled}
			assert.Equal(t, tt.want, IsVisible(form, ctx))
		})
	}
}

func TestIsVisible_MalformedFormsFailClosed(t *testing.T) {
	ctx := RequestContext{
		TenantID:       uuid.New(),
		EnabledModules: []string{"ats_core", "people"},
	}

	tenantScoped := activeForm(models.ScopeTenantSpecific)
	tenantScoped.TenantID = nil
	assert.False(t, IsVisible(tenantScoped, ctx), "tenant_specific with nil tenant must fail closed")

	moduleScoped := activeForm(models.ScopeModuleSpecific)
	moduleScoped.RequiredModules = nil
	assert.False(t, IsVisible(moduleScoped, ctx), "module_specific with no modules must fail closed")

	unknown := activeForm(models.VisibilityScope("regional"))
	assert.False(t, IsVisible(unknown, ctx), "unknown scope must fail closed")

	assert.False(t, IsVisible(nil, ctx))
}

func TestCanInteract(t *testing.T) {
	anon := RequestContext{TenantID: uuid.New()}
	authed := RequestContext{TenantID: uuid.New(), Authenticated: true, Roles: []string{"recruiter"}}

	public := activeForm(models.ScopeGlobal)
	public.AccessLevel = models.AccessPublic
	assert.True(t, CanInteract(public, anon, nil))

	authRequired := activeForm(models.ScopeGlobal)
	authRequired.AccessLevel = models.AccessAuthenticated
	assert.False(t, CanInteract(authRequired, anon, nil))
	assert.True(t, CanInteract(authRequired, authed, nil))

	roleGated := activeForm(models.ScopeGlobal)
	roleGated.AccessLevel = models.AccessRoleBased
	assert.True(t, CanInteract(roleGated, authed, []string{"recruiter", "admin"}))
	assert.False(t, CanInteract(roleGated, authed, []string{"admin"}))
	assert.False(t, CanInteract(roleGated, authed, nil), "empty permitted set denies")
	assert.False(t, CanInteract(roleGated, anon, []string{"recruiter"}))
}

func TestSortPlacements_Deterministic(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	p1 := models.FormPlacement{ID: uuid.New(), Priority: 1, CreatedAt: t1}
	p5a := models.FormPlacement{ID: uuid.New(), Priority: 5, CreatedAt: t2}
	p5b := models.FormPlacement{ID: uuid.New(), Priority: 5, CreatedAt: t0}

	placements := []models.FormPlacement{p1, p5a, p5b}
	SortPlacements(placements)

	require.Len(t, placements, 3)
	assert.Equal(t, p5b.ID, placements[0].ID, "highest priority, earliest created wins")
	assert.Equal(t, p5a.ID, placements[1].ID)
	assert.Equal(t, p1.ID, placements[2].ID)

	// Repeated sorting keeps the order stable
	SortPlacements(placements)
	assert.Equal(t, p5b.ID, placements[0].ID)
	assert.Equal(t, p5a.ID, placements[1].ID)
	assert.Equal(t, p1.ID, placements[2].ID)
}

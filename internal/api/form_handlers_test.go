package api

import (
	"net/http/httptest"
	"testing"

	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/visibility"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ctxWith(rc visibility.RequestContext) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ctxRequest, rc)
	return c
}

func TestPermittedRolesFor(t *testing.T) {
	def := &models.FormDefinition{Settings: models.JSONB{
		"permitted_roles": []interface{}{"recruiter", "hiring_manager", 42},
	}}
	assert.Equal(t, []string{"recruiter", "hiring_manager"}, permittedRolesFor(def))

	assert.Empty(t, permittedRolesFor(&models.FormDefinition{}))
	assert.Empty(t, permittedRolesFor(&models.FormDefinition{Settings: models.JSONB{
		"permitted_roles": "recruiter",
	}}))
}

func TestCanInteract(t *testing.T) {
	h := &Handler{}
	tenant := uuid.New()

	public := &models.FormDefinition{AccessLevel: models.AccessPublic}
	authed := &models.FormDefinition{AccessLevel: models.AccessAuthenticated}
	roleBased := &models.FormDefinition{
		AccessLevel: models.AccessRoleBased,
		Settings:    models.JSONB{"permitted_roles": []interface{}{"recruiter"}},
	}

	anon := visibility.RequestContext{TenantID: tenant}
	viewer := visibility.RequestContext{TenantID: tenant, Authenticated: true, Roles: []string{"viewer"}}
	recruiter := visibility.RequestContext{TenantID: tenant, Authenticated: true, Roles: []string{"recruiter"}}

	assert.True(t, h.canInteract(ctxWith(anon), public))
	assert.False(t, h.canInteract(ctxWith(anon), authed))
	assert.True(t, h.canInteract(ctxWith(viewer), authed))

	assert.False(t, h.canInteract(ctxWith(anon), roleBased))
	assert.False(t, h.canInteract(ctxWith(viewer), roleBased))
	assert.True(t, h.canInteract(ctxWith(recruiter), roleBased))

	// role_based with no configured set denies everyone
	unset := &models.FormDefinition{AccessLevel: models.AccessRoleBased}
	assert.False(t, h.canInteract(ctxWith(recruiter), unset))
}

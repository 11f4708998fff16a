// Package api contains the HTTP handlers and router for Talentd
package api

import (
	"net/http"
	"strings"

	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/auth"
	"github.com/arvena/talentd/internal/visibility"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// context keys set by the middleware chain
const (
	ctxClaims   = "claims"
	ctxUserID   = "user_id"
	ctxTenantID = "tenant_id"
	ctxRequest  = "request_context"
)

// UserMiddleware extracts the user from a Bearer token when present. It
// never aborts; RequireAuthMiddleware enforces presence.
func (h *Handler) UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			if claims, err := h.jwt.ValidateToken(token); err == nil {
				c.Set(ctxClaims, claims)
				c.Set(ctxUserID, claims.UserID)
			}
		}
		c.Next()
	}
}

// RequireAuthMiddleware aborts unauthenticated requests
func (h *Handler) RequireAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ctxClaims); !exists {
			respondError(c, apperr.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// TenantMiddleware resolves the tenant from the X-Tenant-ID header and
// builds the request context every visibility decision downstream runs
// against: tenant, enabled modules, authentication state and roles.
func (h *Handler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantIDStr := c.GetHeader("X-Tenant-ID")
		if tenantIDStr == "" {
			tenantIDStr = c.Query("tenant_id")
		}
		if tenantIDStr == "" {
			respondError(c, apperr.NewBadRequestError("tenant_id is required"))
			c.Abort()
			return
		}

		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			respondError(c, apperr.NewBadRequestError("invalid tenant_id"))
			c.Abort()
			return
		}

		var enabled []string
		if err := h.db.Table("modules").
			Where("tenant_id = ? AND is_enabled = true", tenantID).
			Pluck("code", &enabled).Error; err != nil {
			respondError(c, apperr.NewInternalError(err))
			c.Abort()
			return
		}

		rc := visibility.RequestContext{
			TenantID:       tenantID,
			EnabledModules: enabled,
		}
		if raw, exists := c.Get(ctxClaims); exists {
			claims := raw.(*auth.Claims)
			rc.Authenticated = true
			rc.Roles = claims.Roles
		}

		c.Set(ctxTenantID, tenantID)
		c.Set(ctxRequest, rc)
		c.Next()
	}
}

// RequireRoleMiddleware aborts requests whose caller holds none of the
// permitted roles
func (h *Handler) RequireRoleMiddleware(permitted ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ctxClaims)
		if !exists {
			respondError(c, apperr.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}
		claims := raw.(*auth.Claims)
		if !auth.HasAnyRole(claims.Roles, permitted) {
			respondError(c, apperr.NewPermissionDeniedError("access", c.FullPath()))
			c.Abort()
			return
		}
		c.Next()
	}
}

func requestContext(c *gin.Context) visibility.RequestContext {
	return c.MustGet(ctxRequest).(visibility.RequestContext)
}

func tenantID(c *gin.Context) uuid.UUID {
	return c.MustGet(ctxTenantID).(uuid.UUID)
}

func userID(c *gin.Context) *uuid.UUID {
	if raw, exists := c.Get(ctxUserID); exists {
		id := raw.(uuid.UUID)
		return &id
	}
	return nil
}

// respondError maps application errors to HTTP responses
func respondError(c *gin.Context, err error) {
	status, body := apperr.ToHTTPError(err)
	c.JSON(status, body)
}

// parseID parses a UUID path parameter, responding 400 on failure.
// The bool reports whether the handler should continue.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, apperr.NewBadRequestError("invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// notFoundOr maps gorm's not-found to a 404 and everything else to a 500
func notFoundOr(c *gin.Context, err error, resource string) {
	if err == gorm.ErrRecordNotFound {
		respondError(c, apperr.NewNotFoundError(resource))
		return
	}
	if _, ok := err.(apperr.AppError); ok {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

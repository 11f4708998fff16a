// Package auth - role membership checks
package auth

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleService answers role-membership questions. Role policy itself (which
// roles may interact with which forms) is configured externally; this
// service only resolves membership.
type RoleService struct {
	db *gorm.DB
}

// NewRoleService creates a new role service
func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// GetUserRoles returns the role codes assigned to a user
func (s *RoleService) GetUserRoles(tenantID, userID uuid.UUID) ([]string, error) {
	var codes []string
	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.tenant_id = ? AND roles.is_active = true", userID, tenantID).
		Pluck("roles.code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// HasAnyRole reports whether any of the caller's roles appears in the
// permitted set. An empty permitted set denies.
func HasAnyRole(callerRoles, permitted []string) bool {
	if len(permitted) == 0 {
		return false
	}
	set := make(map[string]bool, len(permitted))
	for _, r := range permitted {
		set[r] = true
	}
	for _, r := range callerRoles {
		if set[r] {
			return true
		}
	}
	return false
}

// Package models contains the core Talentd data structures
package models

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SYSTEM MODELS
// =============================================================================

// Tenant represents a customer/organization in the multi-tenant system
type Tenant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Domain    string    `json:"domain" gorm:"size:255"`
	Settings  JSONB     `json:"settings" gorm:"type:jsonb;default:'{}'"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users   []User   `json:"users,omitempty" gorm:"foreignKey:TenantID"`
	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:TenantID"`
}

// Module represents a platform capability (ats_core, people, analytics, ...)
// that can be enabled per tenant. Module codes gate module_specific form
// visibility.
type Module struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID     uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	Code         string    `json:"code" gorm:"not null;size:50"`
	Name         string    `json:"name" gorm:"not null;size:100"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
	IsEnabled    bool      `json:"is_enabled" gorm:"default:true"`
	Settings     JSONB     `json:"settings" gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// User represents a system user
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID     uuid.UUID  `json:"tenant_id" gorm:"type:uuid;index"`
	Email        string     `json:"email" gorm:"not null;size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	Settings     JSONB      `json:"settings" gorm:"type:jsonb;default:'{}'"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Roles  []Role  `json:"roles,omitempty" gorm:"many2many:user_roles;"`
}

// Role represents a user role
type Role struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	Code        string    `json:"code" gorm:"not null;size:50"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"is_system" gorm:"default:false"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Users  []User  `json:"users,omitempty" gorm:"many2many:user_roles;"`
}

// =============================================================================
// TALENT DOMAIN MODELS
// =============================================================================

// Candidate represents an applicant tracked through the hiring pipeline
type Candidate struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	FirstName string    `json:"first_name" gorm:"not null;size:100"`
	LastName  string    `json:"last_name" gorm:"not null;size:100"`
	Email     string    `json:"email" gorm:"size:255"`
	Phone     string    `json:"phone" gorm:"size:50"`
	Position  string    `json:"position" gorm:"size:255"`
	Stage     string    `json:"stage" gorm:"size:50;default:'applied'"`
	Source    string    `json:"source" gorm:"size:100"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact represents a business contact attached to a company
type Contact struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	FirstName string    `json:"first_name" gorm:"not null;size:100"`
	LastName  string    `json:"last_name" gorm:"not null;size:100"`
	Email     string    `json:"email" gorm:"size:255"`
	Phone     string    `json:"phone" gorm:"size:50"`
	Company   string    `json:"company" gorm:"size:255"`
	Title     string    `json:"title" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// AUDIT MODEL
// =============================================================================

// AuditLog represents an audit trail entry for form and record mutations
type AuditLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID  uuid.UUID  `json:"tenant_id" gorm:"type:uuid;index"`
	UserID    *uuid.UUID `json:"user_id" gorm:"type:uuid"`
	Resource  string     `json:"resource" gorm:"size:50;index"`
	RecordID  *uuid.UUID `json:"record_id" gorm:"type:uuid"`
	Action    string     `json:"action" gorm:"not null;size:30"`
	OldValues JSONB      `json:"old_values" gorm:"type:jsonb"`
	NewValues JSONB      `json:"new_values" gorm:"type:jsonb"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Package database provides database utilities including migrations and
// catalog seeding.
package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/arvena/talentd/internal/config"
	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for migrations
func (MigrationRecord) TableName() string {
	return "_talentd_migrations"
}

type migration struct {
	name string
	run  func(db *gorm.DB) error
}

// migrations run in order; each applies once and is recorded
var migrations = []migration{
	{"001_extensions", func(db *gorm.DB) error {
		return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
	}},
	{"002_schema", func(db *gorm.DB) error {
		return db.AutoMigrate(
			&models.Tenant{},
			&models.Module{},
			&models.User{},
			&models.Role{},
			&models.Candidate{},
			&models.Contact{},
			&models.AuditLog{},
			&models.FormDefinition{},
			&models.FormSection{},
			&models.FormField{},
			&models.DeploymentPoint{},
			&models.FormPlacement{},
			&models.FormWorkflow{},
			&models.WorkflowStep{},
			&models.AutomationRule{},
			&config.SystemConfig{},
		)
	}},
	{"003_deployment_points", seedDeploymentPoints},
}

// RunMigrations executes all pending migrations
func RunMigrations(db *gorm.DB, logger *slog.Logger) error {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int64
		db.Model(&MigrationRecord{}).Where("name = ?", m.name).Count(&count)
		if count > 0 {
			logger.Debug("migration already applied", "name", m.name)
			continue
		}

		logger.Info("applying migration", "name", m.name)
		if err := m.run(db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}
		if err := db.Create(&MigrationRecord{Name: m.name}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}
	}
	return nil
}

// seedDeploymentPoints installs the catalog of UI locations that placements
// can target. The catalog is read-mostly; reruns only add missing entries.
func seedDeploymentPoints(db *gorm.DB) error {
	points := []models.DeploymentPoint{
		{Location: "dashboard_widget", Name: "Dashboard Widget", Description: "Card on the tenant dashboard", TargetPath: "/dashboard"},
		{Location: "modal_dialog", Name: "Modal Dialog", Description: "Popup form opened from an action button"},
		{Location: "navigation_item", Name: "Navigation Item", Description: "Standalone page reachable from the sidebar"},
		{Location: "candidate_detail", Name: "Candidate Detail Panel", Description: "Panel on the candidate profile page", TargetPath: "/candidates/:id"},
		{Location: "contact_detail", Name: "Contact Detail Panel", Description: "Panel on the contact profile page", TargetPath: "/contacts/:id"},
		{Location: "public_portal", Name: "Public Portal", Description: "Unauthenticated application portal", TargetPath: "/apply"},
	}
	for _, p := range points {
		var count int64
		db.Model(&models.DeploymentPoint{}).Where("location = ?", p.Location).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedTenant installs the default roles and module catalog for a new
// tenant. Reruns only add missing entries.
func SeedTenant(db *gorm.DB, tenantID uuid.UUID) error {
	roles := []models.Role{
		{TenantID: tenantID, Code: "admin", Name: "Administrator", Description: "Full access including form building", IsSystem: true},
		{TenantID: tenantID, Code: "recruiter", Name: "Recruiter", Description: "Manages candidates and submissions", IsSystem: true},
		{TenantID: tenantID, Code: "hiring_manager", Name: "Hiring Manager", Description: "Reviews candidates and analytics", IsSystem: true},
		{TenantID: tenantID, Code: "viewer", Name: "Viewer", Description: "Read-only access", IsSystem: true},
	}
	for _, r := range roles {
		var count int64
		db.Model(&models.Role{}).Where("tenant_id = ? AND code = ?", tenantID, r.Code).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&r).Error; err != nil {
			return err
		}
	}

	modules := []models.Module{
		{TenantID: tenantID, Code: "ats_core", Name: "Applicant Tracking", DisplayOrder: 1, IsEnabled: true},
		{TenantID: tenantID, Code: "people", Name: "People Directory", DisplayOrder: 2, IsEnabled: true},
		{TenantID: tenantID, Code: "crm", Name: "Contact Management", DisplayOrder: 3, IsEnabled: true},
		{TenantID: tenantID, Code: "analytics", Name: "Analytics Dashboard", DisplayOrder: 4, IsEnabled: true},
		{TenantID: tenantID, Code: "automation", Name: "Workflow Automation", DisplayOrder: 5, IsEnabled: false},
	}
	for _, m := range modules {
		var count int64
		db.Model(&models.Module{}).Where("tenant_id = ? AND code = ?", tenantID, m.Code).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&m).Error; err != nil {
			return err
		}
	}
	return nil
}

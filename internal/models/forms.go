// Package models - dynamic form definition, placement and automation entities
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// =============================================================================
// ENUMS
// =============================================================================

// VisibilityScope governs which tenants/modules can list a form
type VisibilityScope string

const (
	ScopeGlobal         VisibilityScope = "global"
	ScopeTenantSpecific VisibilityScope = "tenant_specific"
	ScopeModuleSpecific VisibilityScope = "module_specific"
)

// Valid reports whether the scope is a known value
func (s VisibilityScope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeTenantSpecific, ScopeModuleSpecific:
		return true
	}
	return false
}

// AccessLevel is the authentication tier required to interact with a form.
// It gates interaction, not listing; listing is governed by VisibilityScope.
type AccessLevel string

const (
	AccessPublic        AccessLevel = "public"
	AccessAuthenticated AccessLevel = "authenticated"
	AccessRoleBased     AccessLevel = "role_based"
)

// Valid reports whether the access level is a known value
func (a AccessLevel) Valid() bool {
	switch a {
	case AccessPublic, AccessAuthenticated, AccessRoleBased:
		return true
	}
	return false
}

// FieldType is the closed set of field types a form field can take
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldDate     FieldType = "date"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldBoolean  FieldType = "boolean"
)

// FieldTypes lists every valid field type in display order
var FieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldNumber, FieldEmail, FieldPhone,
	FieldDate, FieldDropdown, FieldCheckbox, FieldRadio, FieldBoolean,
}

// Valid reports whether the field type is a known value
func (f FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if f == ft {
			return true
		}
	}
	return false
}

// PlacementStatus marks a placement as live or disabled
type PlacementStatus string

const (
	PlacementActive   PlacementStatus = "active"
	PlacementInactive PlacementStatus = "inactive"
)

// StepType is the closed set of workflow step kinds
type StepType string

const (
	StepNotification   StepType = "notification"
	StepWebhook        StepType = "webhook"
	StepDataProcessing StepType = "data_processing"
	StepCondition      StepType = "condition"
)

// Valid reports whether the step type is a known value
func (s StepType) Valid() bool {
	switch s {
	case StepNotification, StepWebhook, StepDataProcessing, StepCondition:
		return true
	}
	return false
}

// TriggerType is the closed set of automation rule triggers
type TriggerType string

const (
	TriggerWorkflowStart  TriggerType = "workflow_start"
	TriggerStepCompletion TriggerType = "step_completion"
	TriggerErrorDetected  TriggerType = "error_detected"
	TriggerTimeBased      TriggerType = "time_based"
	TriggerUserAction     TriggerType = "user_action"
)

// Valid reports whether the trigger type is a known value
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerWorkflowStart, TriggerStepCompletion, TriggerErrorDetected,
		TriggerTimeBased, TriggerUserAction:
		return true
	}
	return false
}

// Operator is the closed set of comparison operators used by rule conditions
// and in-memory filters
type Operator string

const (
	OpEquals      Operator = "equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpNotEmpty    Operator = "not_empty"
)

// Valid reports whether the operator is a known value
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpGreaterThan, OpLessThan, OpContains, OpNotEmpty:
		return true
	}
	return false
}

// =============================================================================
// FORM SCHEMA MODELS
// =============================================================================

// FormDefinition is the root of a dynamically defined form. Exactly one of
// TenantID / RequiredModules is meaningful, selected by VisibilityScope.
type FormDefinition struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name            string          `json:"name" gorm:"not null;size:255"`
	Slug            string          `json:"slug" gorm:"not null;size:255;index"`
	Description     string          `json:"description"`
	IsActive        bool            `json:"is_active" gorm:"default:false"`
	Settings        JSONB           `json:"settings" gorm:"type:jsonb;default:'{}'"`
	VisibilityScope VisibilityScope `json:"visibility_scope" gorm:"not null;size:30"`
	AccessLevel     AccessLevel     `json:"access_level" gorm:"not null;size:30;default:'authenticated'"`
	TenantID        *uuid.UUID      `json:"tenant_id" gorm:"type:uuid;index"`
	RequiredModules pq.StringArray  `json:"required_modules" gorm:"type:text[]"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	Sections   []FormSection   `json:"sections,omitempty" gorm:"foreignKey:FormID"`
	Fields     []FormField     `json:"fields,omitempty" gorm:"foreignKey:FormID"`
	Placements []FormPlacement `json:"placements,omitempty" gorm:"foreignKey:FormID"`
	Workflows  []FormWorkflow  `json:"workflows,omitempty" gorm:"foreignKey:FormID"`
}

// FormSection groups fields within a form. Sections have no lifecycle of
// their own; they are owned by their definition.
type FormSection struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	FormID        uuid.UUID `json:"form_id" gorm:"type:uuid;index;not null"`
	Name          string    `json:"name" gorm:"not null;size:255"`
	Description   string    `json:"description"`
	IsCollapsible bool      `json:"is_collapsible" gorm:"default:false"`
	SortOrder     int       `json:"sort_order" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at"`

	// Relations
	Form *FormDefinition `json:"form,omitempty" gorm:"foreignKey:FormID"`
}

// FormField is a single input in a form. A nil SectionID places the field in
// the general/unsectioned group, rendered before all declared sections.
// FieldKey is unique within its form; the store enforces this with a
// composite index on (form_id, field_key).
type FormField struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	FormID    uuid.UUID  `json:"form_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_form_field_key"`
	SectionID *uuid.UUID `json:"section_id" gorm:"type:uuid;index"`
	Name      string     `json:"name" gorm:"not null;size:255"`
	FieldKey  string     `json:"field_key" gorm:"not null;size:100;uniqueIndex:idx_form_field_key"`
	FieldType FieldType  `json:"field_type" gorm:"not null;size:30"`
	Required  bool       `json:"required" gorm:"default:false"`
	SortOrder int        `json:"sort_order" gorm:"default:0"`
	Settings  JSONB      `json:"settings" gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	Form    *FormDefinition `json:"form,omitempty" gorm:"foreignKey:FormID"`
	Section *FormSection    `json:"section,omitempty" gorm:"foreignKey:SectionID"`
}

// DeploymentPoint is a read-mostly catalog entry naming a UI location where
// form placements can render.
type DeploymentPoint struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Location    string    `json:"location" gorm:"not null;size:50;index"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	Description string    `json:"description"`
	TargetPath  string    `json:"target_path" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
}

// FormPlacement assigns a form to a deployment point within a tenant
// context. Higher priority wins; ties break earliest-created first.
type FormPlacement struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	FormID            uuid.UUID       `json:"form_id" gorm:"type:uuid;index;not null"`
	DeploymentPointID uuid.UUID       `json:"deployment_point_id" gorm:"type:uuid;index;not null"`
	TenantID          *uuid.UUID      `json:"tenant_id" gorm:"type:uuid;index"`
	Priority          int             `json:"priority" gorm:"default:0"`
	Configuration     JSONB           `json:"configuration" gorm:"type:jsonb;default:'{}'"`
	Status            PlacementStatus `json:"status" gorm:"not null;size:20;default:'active'"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Relations
	Form            *FormDefinition  `json:"form,omitempty" gorm:"foreignKey:FormID"`
	DeploymentPoint *DeploymentPoint `json:"deployment_point,omitempty" gorm:"foreignKey:DeploymentPointID"`
}

// =============================================================================
// WORKFLOW & AUTOMATION MODELS
// =============================================================================

// FormWorkflow is an ordered automated process attached to a form
type FormWorkflow struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	FormID            uuid.UUID `json:"form_id" gorm:"type:uuid;index;not null"`
	Name              string    `json:"name" gorm:"not null;size:255"`
	Description       string    `json:"description"`
	TriggerConditions JSONB     `json:"trigger_conditions" gorm:"type:jsonb;default:'{}'"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Form  *FormDefinition `json:"form,omitempty" gorm:"foreignKey:FormID"`
	Steps []WorkflowStep  `json:"steps,omitempty" gorm:"foreignKey:WorkflowID"`
}

// WorkflowStep is one step in a workflow, executed in OrderIndex order
type WorkflowStep struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	WorkflowID uuid.UUID `json:"workflow_id" gorm:"type:uuid;index;not null"`
	StepType   StepType  `json:"step_type" gorm:"not null;size:30"`
	Action     string    `json:"action" gorm:"not null;size:100"`
	Config     JSONB     `json:"config" gorm:"type:jsonb;default:'{}'"`
	OrderIndex int       `json:"order_index" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Workflow *FormWorkflow `json:"workflow,omitempty" gorm:"foreignKey:WorkflowID"`
}

// RuleCondition is a single predicate in an automation rule
type RuleCondition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// RuleConditions is an ordered condition list stored as JSONB
type RuleConditions []RuleCondition

// Value implements the driver.Valuer interface
func (c RuleConditions) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(RuleConditions{})
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface
func (c *RuleConditions) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, c)
}

// RuleAction is a single action dispatched by an automation rule
type RuleAction struct {
	Type          string `json:"type"`
	Configuration JSONB  `json:"configuration"`
}

// RuleActions is an ordered action list stored as JSONB
type RuleActions []RuleAction

// Value implements the driver.Valuer interface
func (a RuleActions) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(RuleActions{})
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *RuleActions) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, a)
}

// AutomationRule is an independent trigger/condition/action rule. It is not
// tied to a single form; the trigger configuration may reference one.
type AutomationRule struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID      uuid.UUID      `json:"tenant_id" gorm:"type:uuid;index"`
	Name          string         `json:"name" gorm:"not null;size:255"`
	Trigger       TriggerType    `json:"trigger" gorm:"not null;size:30"`
	TriggerConfig JSONB          `json:"trigger_config" gorm:"type:jsonb;default:'{}'"`
	Conditions    RuleConditions `json:"conditions" gorm:"type:jsonb;default:'[]'"`
	Actions       RuleActions    `json:"actions" gorm:"type:jsonb;default:'[]'"`
	Priority      int            `json:"priority" gorm:"default:0"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

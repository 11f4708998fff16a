// Package automation executes form workflows and automation rules. The
// runner walks workflow steps in order; the rule engine matches trigger
// events against stored rules and dispatches their actions.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/query"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StepResult records the outcome of one executed step
type StepResult struct {
	StepID   uuid.UUID       `json:"step_id"`
	StepType models.StepType `json:"step_type"`
	Action   string          `json:"action"`
	Skipped  bool            `json:"skipped"`
	Error    string          `json:"error,omitempty"`
}

// RunResult is the outcome of a full workflow run
type RunResult struct {
	WorkflowID uuid.UUID    `json:"workflow_id"`
	Steps      []StepResult `json:"steps"`
	Stopped    bool         `json:"stopped"`
	Record     query.Record `json:"record"`
}

// Runner executes workflow steps in order
type Runner struct {
	db       *gorm.DB
	webhooks *WebhookClient
	logger   *slog.Logger
}

// NewRunner creates a workflow runner
func NewRunner(db *gorm.DB, webhooks *WebhookClient, logger *slog.Logger) *Runner {
	return &Runner{db: db, webhooks: webhooks, logger: logger}
}

// Run executes the workflow's steps against a record, in OrderIndex order.
// A condition step that evaluates false stops the run; remaining steps are
// reported as skipped. A failing step is recorded but does not stop later
// steps. The input record is not mutated; data_processing steps patch a
// copy carried through the run.
func (r *Runner) Run(ctx context.Context, workflow models.FormWorkflow, record query.Record) (*RunResult, error) {
	if !workflow.IsActive {
		return nil, fmt.Errorf("workflow %s is not active", workflow.ID)
	}

	steps := make([]models.WorkflowStep, len(workflow.Steps))
	copy(steps, workflow.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].OrderIndex < steps[j].OrderIndex
	})

	working := make(query.Record, len(record))
	for k, v := range record {
		working[k] = v
	}

	result := &RunResult{WorkflowID: workflow.ID, Record: working}
	stopped := false

	for _, step := range steps {
		sr := StepResult{StepID: step.ID, StepType: step.StepType, Action: step.Action}
		if stopped {
			sr.Skipped = true
			result.Steps = append(result.Steps, sr)
			continue
		}

		var err error
		switch step.StepType {
		case models.StepNotification:
			err = r.runNotification(workflow, step, working)
		case models.StepWebhook:
			err = r.runWebhook(ctx, step, working)
		case models.StepDataProcessing:
			err = r.runDataProcessing(step, working)
		case models.StepCondition:
			var pass bool
			pass, err = r.runCondition(step, working)
			if err == nil && !pass {
				stopped = true
			}
		default:
			err = fmt.Errorf("unknown step type %q", step.StepType)
		}

		if err != nil {
			sr.Error = err.Error()
			r.logger.Warn("workflow step failed",
				"workflow_id", workflow.ID,
				"step_id", step.ID,
				"step_type", step.StepType,
				"error", err,
			)
		}
		result.Steps = append(result.Steps, sr)
	}

	result.Stopped = stopped
	result.Record = working
	return result, nil
}

// runNotification records the notification in the audit trail. Outbound
// channels (email, in-app) consume the trail asynchronously.
func (r *Runner) runNotification(workflow models.FormWorkflow, step models.WorkflowStep, record query.Record) error {
	entry := models.AuditLog{
		Resource: "workflow_notification",
		RecordID: &workflow.FormID,
		Action:   step.Action,
		NewValues: models.JSONB{
			"workflow_id": workflow.ID.String(),
			"step_id":     step.ID.String(),
			"message":     step.Config["message"],
			"recipients":  step.Config["recipients"],
			"record":      map[string]interface{}(record),
		},
	}
	return r.db.Create(&entry).Error
}

func (r *Runner) runWebhook(ctx context.Context, step models.WorkflowStep, record query.Record) error {
	endpoint, _ := step.Config["url"].(string)
	if endpoint == "" {
		return fmt.Errorf("webhook step %s has no url configured", step.ID)
	}
	payload := map[string]interface{}{
		"action": step.Action,
		"record": map[string]interface{}(record),
	}
	return r.webhooks.Deliver(ctx, endpoint, payload)
}

// runDataProcessing applies the step's "set" patch to the working record
func (r *Runner) runDataProcessing(step models.WorkflowStep, record query.Record) error {
	patch, ok := step.Config["set"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("data_processing step %s has no set patch", step.ID)
	}
	for k, v := range patch {
		record[k] = v
	}
	return nil
}

// runCondition evaluates the step's conditions against the working record
func (r *Runner) runCondition(step models.WorkflowStep, record query.Record) (bool, error) {
	raw, ok := step.Config["conditions"].([]interface{})
	if !ok {
		return false, fmt.Errorf("condition step %s has no conditions", step.ID)
	}
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return false, fmt.Errorf("condition step %s has a malformed condition", step.ID)
		}
		field, _ := m["field"].(string)
		opStr, _ := m["operator"].(string)
		op := models.Operator(opStr)
		if !op.Valid() {
			return false, fmt.Errorf("condition step %s uses unknown operator %q", step.ID, opStr)
		}
		if !query.Matches(op, record[field], m["value"]) {
			return false, nil
		}
	}
	return true, nil
}

package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/query"
	"gorm.io/gorm"
)

// Event is one trigger occurrence fed to the rule engine
type Event struct {
	Trigger models.TriggerType
	Record  query.Record
}

// Dispatch records one rule firing and the outcome of its actions
type Dispatch struct {
	Rule    models.AutomationRule `json:"rule"`
	Applied []string              `json:"applied"`
	Errors  []string              `json:"errors,omitempty"`
}

// Engine matches events against stored automation rules and dispatches
// their actions in priority order.
type Engine struct {
	db       *gorm.DB
	webhooks *WebhookClient
	logger   *slog.Logger
}

// NewEngine creates a rule engine
func NewEngine(db *gorm.DB, webhooks *WebhookClient, logger *slog.Logger) *Engine {
	return &Engine{db: db, webhooks: webhooks, logger: logger}
}

// MatchingRules returns the active rules whose trigger matches and whose
// conditions all hold for the event record, ordered priority descending
// with earlier-created rules first on ties.
func MatchingRules(rules []models.AutomationRule, ev Event) []models.AutomationRule {
	matched := make([]models.AutomationRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive || rule.Trigger != ev.Trigger {
			continue
		}
		if !query.EvaluateAll(ev.Record, rule.Conditions) {
			continue
		}
		matched = append(matched, rule)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched
}

// HandleEvent loads the tenant's rules, matches them against the event, and
// dispatches each matching rule's actions. One failing action never blocks
// the others.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) ([]Dispatch, error) {
	tenantID, _ := ev.Record["tenant_id"].(string)

	var rules []models.AutomationRule
	q := e.db.Where("is_active = ?", true).Where("trigger = ?", ev.Trigger)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Order("priority DESC, created_at ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("load automation rules: %w", err)
	}

	var dispatches []Dispatch
	for _, rule := range MatchingRules(rules, ev) {
		d := Dispatch{Rule: rule}
		for _, action := range rule.Actions {
			if err := e.applyAction(ctx, rule, action, ev.Record); err != nil {
				d.Errors = append(d.Errors, fmt.Sprintf("%s: %v", action.Type, err))
				e.logger.Warn("rule action failed",
					"rule_id", rule.ID,
					"action", action.Type,
					"error", err,
				)
				continue
			}
			d.Applied = append(d.Applied, action.Type)
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, nil
}

func (e *Engine) applyAction(ctx context.Context, rule models.AutomationRule, action models.RuleAction, record query.Record) error {
	switch action.Type {
	case "webhook":
		endpoint, _ := action.Configuration["url"].(string)
		if endpoint == "" {
			return fmt.Errorf("webhook action has no url")
		}
		return e.webhooks.Deliver(ctx, endpoint, map[string]interface{}{
			"rule":    rule.Name,
			"trigger": rule.Trigger,
			"record":  map[string]interface{}(record),
		})
	case "notification":
		entry := models.AuditLog{
			TenantID: rule.TenantID,
			Resource: "rule_notification",
			Action:   rule.Name,
			NewValues: models.JSONB{
				"rule_id":    rule.ID.String(),
				"message":    action.Configuration["message"],
				"recipients": action.Configuration["recipients"],
				"record":     map[string]interface{}(record),
			},
		}
		return e.db.Create(&entry).Error
	case "audit":
		entry := models.AuditLog{
			TenantID:  rule.TenantID,
			Resource:  "automation_rule",
			Action:    string(rule.Trigger),
			NewValues: models.JSONB{"rule_id": rule.ID.String(), "record": map[string]interface{}(record)},
		}
		return e.db.Create(&entry).Error
	}
	return fmt.Errorf("unknown action type %q", action.Type)
}

package automation

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arvena/talentd/internal/config"
	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/query"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWebhookClient() *WebhookClient {
	return NewWebhookClient(config.AutomationConfig{
		WebhookTimeout: 5 * time.Second,
		RatePerMinute:  600,
		RateBurst:      100,
	}, testLogger())
}

func TestWebhookClientDeliver(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := testWebhookClient()
	err := client.Deliver(context.Background(), srv.URL, map[string]interface{}{"event": "created"})
	require.NoError(t, err)
	assert.Equal(t, "created", received["event"])
}

func TestWebhookClientSignsPayload(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Talentd-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	secret := "topsecret"
	client := NewWebhookClient(config.AutomationConfig{
		WebhookTimeout: 5 * time.Second,
		RatePerMinute:  600,
		RateBurst:      100,
		SigningSecret:  secret,
	}, testLogger())

	require.NoError(t, client.Deliver(context.Background(), srv.URL, map[string]interface{}{"event": "signed"}))
	require.NotEmpty(t, gotSig)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)

	// without a secret the header is omitted
	gotSig = "unset"
	require.NoError(t, testWebhookClient().Deliver(context.Background(), srv.URL, nil))
	assert.Empty(t, gotSig)
}

func TestWebhookClientDeliverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := testWebhookClient()
	err := client.Deliver(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	err = client.Deliver(context.Background(), "ftp://example.com/hook", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
}

func step(order int, st models.StepType, action string, cfg models.JSONB) models.WorkflowStep {
	return models.WorkflowStep{ID: uuid.New(), StepType: st, Action: action, Config: cfg, OrderIndex: order}
}

func TestRunnerExecutesStepsInOrder(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, body["action"].(string))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	workflow := models.FormWorkflow{
		ID:       uuid.New(),
		IsActive: true,
		Steps: []models.WorkflowStep{
			// deliberately out of order to exercise OrderIndex sorting
			step(2, models.StepWebhook, "second", models.JSONB{"url": srv.URL}),
			step(1, models.StepWebhook, "first", models.JSONB{"url": srv.URL}),
			step(3, models.StepDataProcessing, "tag", models.JSONB{
				"set": map[string]interface{}{"stage": "screened"},
			}),
		},
	}

	runner := NewRunner(nil, testWebhookClient(), testLogger())
	record := query.Record{"stage": "applied"}
	result, err := runner.Run(context.Background(), workflow, record)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.False(t, result.Stopped)
	assert.Equal(t, "screened", result.Record["stage"])
	// the caller's record is untouched
	assert.Equal(t, "applied", record["stage"])
}

func TestRunnerConditionShortCircuits(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	workflow := models.FormWorkflow{
		ID:       uuid.New(),
		IsActive: true,
		Steps: []models.WorkflowStep{
			step(1, models.StepCondition, "gate", models.JSONB{
				"conditions": []interface{}{
					map[string]interface{}{"field": "stage", "operator": "equals", "value": "hired"},
				},
			}),
			step(2, models.StepWebhook, "notify", models.JSONB{"url": srv.URL}),
		},
	}

	runner := NewRunner(nil, testWebhookClient(), testLogger())
	result, err := runner.Run(context.Background(), workflow, query.Record{"stage": "applied"})
	require.NoError(t, err)

	assert.True(t, result.Stopped)
	require.Len(t, result.Steps, 2)
	assert.True(t, result.Steps[1].Skipped)
	assert.False(t, hit)
}

func TestRunnerRejectsInactiveWorkflow(t *testing.T) {
	runner := NewRunner(nil, testWebhookClient(), testLogger())
	_, err := runner.Run(context.Background(), models.FormWorkflow{ID: uuid.New()}, nil)
	require.Error(t, err)
}

func TestRunnerRecordsFailedStepAndContinues(t *testing.T) {
	workflow := models.FormWorkflow{
		ID:       uuid.New(),
		IsActive: true,
		Steps: []models.WorkflowStep{
			step(1, models.StepWebhook, "broken", models.JSONB{}), // no url
			step(2, models.StepDataProcessing, "tag", models.JSONB{
				"set": map[string]interface{}{"flag": true},
			}),
		},
	}

	runner := NewRunner(nil, testWebhookClient(), testLogger())
	result, err := runner.Run(context.Background(), workflow, query.Record{})
	require.NoError(t, err)

	require.Len(t, result.Steps, 2)
	assert.NotEmpty(t, result.Steps[0].Error)
	assert.False(t, result.Steps[1].Skipped)
	assert.Equal(t, true, result.Record["flag"])
}

func rule(name string, priority int, created time.Time, trigger models.TriggerType, conds models.RuleConditions) models.AutomationRule {
	return models.AutomationRule{
		ID:         uuid.New(),
		Name:       name,
		Trigger:    trigger,
		Conditions: conds,
		Priority:   priority,
		IsActive:   true,
		CreatedAt:  created,
	}
}

func TestMatchingRules(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	rules := []models.AutomationRule{
		rule("low", 1, t0, models.TriggerUserAction, nil),
		rule("high-later", 5, t1, models.TriggerUserAction, nil),
		rule("high-earlier", 5, t0, models.TriggerUserAction, nil),
		rule("wrong-trigger", 9, t0, models.TriggerTimeBased, nil),
		rule("condition-miss", 9, t0, models.TriggerUserAction, models.RuleConditions{
			{Field: "stage", Operator: models.OpEquals, Value: "hired"},
		}),
	}
	inactive := rule("inactive", 9, t0, models.TriggerUserAction, nil)
	inactive.IsActive = false
	rules = append(rules, inactive)

	ev := Event{Trigger: models.TriggerUserAction, Record: query.Record{"stage": "applied"}}
	matched := MatchingRules(rules, ev)

	require.Len(t, matched, 3)
	assert.Equal(t, "high-earlier", matched[0].Name)
	assert.Equal(t, "high-later", matched[1].Name)
	assert.Equal(t, "low", matched[2].Name)
}

package forms

import (
	"os"
	"testing"

	"github.com/arvena/talentd/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDB opens the Postgres instance named by TEST_DATABASE_DSN. Tests that
// need a real store skip when it is not set.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, db.AutoMigrate(
		&models.FormDefinition{},
		&models.FormSection{},
		&models.FormField{},
		&models.DeploymentPoint{},
		&models.FormPlacement{},
		&models.FormWorkflow{},
		&models.WorkflowStep{},
		&models.AuditLog{},
	))
	return db
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestDeleteDefinitionCascades(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	def, err := svc.CreateDefinition(CreateDefinitionInput{
		Name:            "Interview Feedback " + uuid.NewString(),
		VisibilityScope: models.ScopeGlobal,
	}, nil)
	require.NoError(t, err)

	section, err := svc.CreateSection(def.ID, "Details", "", false)
	require.NoError(t, err)
	_, err = svc.AddField(def.ID, &section.ID, models.FieldText, "Summary")
	require.NoError(t, err)
	_, err = svc.AddField(def.ID, nil, models.FieldNumber, "Score")
	require.NoError(t, err)

	point := models.DeploymentPoint{ID: uuid.New(), Location: "dashboard_widget", Name: "Dashboard"}
	require.NoError(t, db.Create(&point).Error)
	t.Cleanup(func() { db.Delete(&models.DeploymentPoint{}, "id = ?", point.ID) })

	for priority := 0; priority < 2; priority++ {
		_, err = svc.CreatePlacement(CreatePlacementInput{
			FormID:            def.ID,
			DeploymentPointID: point.ID,
			Priority:          priority,
		})
		require.NoError(t, err)
	}

	wf, err := svc.CreateWorkflow(CreateWorkflowInput{
		FormID: def.ID,
		Name:   "Notify on submit",
		Steps: []StepInput{
			{StepType: models.StepNotification, Action: "notify"},
			{StepType: models.StepWebhook, Action: "post", Config: models.JSONB{"url": "https://example.com/hook"}},
		},
	})
	require.NoError(t, err)

	// a sibling definition must survive the cascade untouched
	other, err := svc.CreateDefinition(CreateDefinitionInput{
		Name:            "Reference Check " + uuid.NewString(),
		VisibilityScope: models.ScopeGlobal,
	}, nil)
	require.NoError(t, err)
	_, err = svc.AddField(other.ID, nil, models.FieldText, "Referee")
	require.NoError(t, err)
	t.Cleanup(func() { svc.DeleteDefinition(other.ID, nil) })

	require.NoError(t, svc.DeleteDefinition(def.ID, nil))

	assert.ErrorIs(t, db.First(&models.FormDefinition{}, "id = ?", def.ID).Error, gorm.ErrRecordNotFound)
	assert.Zero(t, countRows(t, db, &models.FormSection{}, "form_id = ?", def.ID))
	assert.Zero(t, countRows(t, db, &models.FormField{}, "form_id = ?", def.ID))
	assert.Zero(t, countRows(t, db, &models.FormPlacement{}, "form_id = ?", def.ID))
	assert.Zero(t, countRows(t, db, &models.FormWorkflow{}, "form_id = ?", def.ID))
	assert.Zero(t, countRows(t, db, &models.WorkflowStep{}, "workflow_id = ?", wf.ID))

	assert.Equal(t, int64(1), countRows(t, db, &models.FormField{}, "form_id = ?", other.ID))
}

func TestFieldKeyUniquePerForm(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	def, err := svc.CreateDefinition(CreateDefinitionInput{
		Name:            "Screening " + uuid.NewString(),
		VisibilityScope: models.ScopeGlobal,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.DeleteDefinition(def.ID, nil) })

	field, err := svc.AddField(def.ID, nil, models.FieldText, "Notes")
	require.NoError(t, err)

	// the store rejects a duplicate key even when it bypasses AddField
	dup := models.FormField{
		ID:        uuid.New(),
		FormID:    def.ID,
		Name:      "Notes again",
		FieldKey:  field.FieldKey,
		FieldType: models.FieldText,
	}
	assert.Error(t, db.Create(&dup).Error)

	// the same key on another form is fine
	other, err := svc.CreateDefinition(CreateDefinitionInput{
		Name:            "Screening " + uuid.NewString(),
		VisibilityScope: models.ScopeGlobal,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.DeleteDefinition(other.ID, nil) })

	sameKey := models.FormField{
		ID:        uuid.New(),
		FormID:    other.ID,
		Name:      "Notes",
		FieldKey:  field.FieldKey,
		FieldType: models.FieldText,
	}
	assert.NoError(t, db.Create(&sameKey).Error)
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/auth"
	"github.com/arvena/talentd/internal/automation"
	"github.com/arvena/talentd/internal/forms"
	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/security"
	"github.com/arvena/talentd/internal/visibility"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxPageSize = 200

// Handler carries the services the HTTP layer dispatches into
type Handler struct {
	db       *gorm.DB
	forms    *forms.Service
	resolver *visibility.Resolver
	jwt      *auth.JWTService
	roles    *auth.RoleService
	runner   *automation.Runner
	engine   *automation.Engine
	logger   *slog.Logger
}

// NewHandler creates the API handler
func NewHandler(db *gorm.DB, jwtService *auth.JWTService, runner *automation.Runner, engine *automation.Engine, logger *slog.Logger) *Handler {
	return &Handler{
		db:       db,
		forms:    forms.NewService(db),
		resolver: visibility.NewResolver(db),
		jwt:      jwtService,
		roles:    auth.NewRoleService(db),
		runner:   runner,
		engine:   engine,
		logger:   logger,
	}
}

// Health reports service liveness
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	dbStatus := "up"
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": dbStatus})
}

// pagination reads page/page_size query params with sane bounds
func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))
	if size < 1 {
		size = 25
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (page - 1) * size, size
}

// =============================================================================
// CANDIDATES
// =============================================================================

var candidateSearchColumns = []string{"first_name", "last_name", "email", "position"}
var candidateSortColumns = []string{"first_name", "last_name", "stage", "position", "created_at"}

// ListCandidates returns a paginated candidate list with optional search,
// stage filter and sorting
// GET /api/candidates
func (h *Handler) ListCandidates(c *gin.Context) {
	q := h.db.Model(&models.Candidate{}).Where("tenant_id = ?", tenantID(c))

	if term := c.Query("search"); term != "" {
		cond, params := security.SearchCondition(candidateSearchColumns, term)
		if cond != "" {
			q = q.Where(cond, params...)
		}
	}
	if stage := c.Query("stage"); stage != "" {
		q = q.Where("stage = ?", stage)
	}

	var total int64
	q.Count(&total)

	offset, limit := pagination(c)
	order := security.SortClause(c.Query("sort"), c.Query("dir"), candidateSortColumns, "created_at DESC")

	var candidates []models.Candidate
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&candidates).Error; err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "total": total})
}

// CandidateInput is the create/update payload for candidates
type CandidateInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Position  string `json:"position"`
	Stage     string `json:"stage"`
	Source    string `json:"source"`
	Notes     string `json:"notes"`
}

// CreateCandidate adds a candidate to the pipeline
// POST /api/candidates
func (h *Handler) CreateCandidate(c *gin.Context) {
	var req CandidateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	candidate := models.Candidate{
		TenantID:  tenantID(c),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Position:  req.Position,
		Stage:     req.Stage,
		Source:    req.Source,
		Notes:     req.Notes,
	}
	if candidate.Stage == "" {
		candidate.Stage = "applied"
	}
	if err := h.db.Create(&candidate).Error; err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

// GetCandidate returns one candidate
// GET /api/candidates/:id
func (h *Handler) GetCandidate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var candidate models.Candidate
	if err := h.db.Where("id = ? AND tenant_id = ?", id, tenantID(c)).First(&candidate).Error; err != nil {
		notFoundOr(c, err, "candidate")
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// UpdateCandidate updates a candidate; a stage change fires the automation
// engine with a user_action event
// PUT /api/candidates/:id
func (h *Handler) UpdateCandidate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var candidate models.Candidate
	if err := h.db.Where("id = ? AND tenant_id = ?", id, tenantID(c)).First(&candidate).Error; err != nil {
		notFoundOr(c, err, "candidate")
		return
	}

	var req CandidateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}

	stageChanged := req.Stage != "" && req.Stage != candidate.Stage
	candidate.FirstName = req.FirstName
	candidate.LastName = req.LastName
	candidate.Email = req.Email
	candidate.Phone = req.Phone
	candidate.Position = req.Position
	candidate.Source = req.Source
	candidate.Notes = req.Notes
	if req.Stage != "" {
		candidate.Stage = req.Stage
	}
	if err := h.db.Save(&candidate).Error; err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}

	if stageChanged {
		ev := automation.Event{
			Trigger: models.TriggerUserAction,
			Record:  candidateRecord(candidate),
		}
		if _, err := h.engine.HandleEvent(c.Request.Context(), ev); err != nil {
			h.logger.Warn("stage change automation failed", "candidate_id", candidate.ID, "error", err)
		}
	}
	c.JSON(http.StatusOK, candidate)
}

// DeleteCandidate removes a candidate
// DELETE /api/candidates/:id
func (h *Handler) DeleteCandidate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := h.db.Where("id = ? AND tenant_id = ?", id, tenantID(c)).Delete(&models.Candidate{})
	if res.Error != nil {
		respondError(c, apperr.NewInternalError(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, apperr.NewNotFoundError("candidate"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// =============================================================================
// CONTACTS
// =============================================================================

var contactSearchColumns = []string{"first_name", "last_name", "email", "company"}
var contactSortColumns = []string{"first_name", "last_name", "company", "created_at"}

// ListContacts returns a paginated contact list
// GET /api/contacts
func (h *Handler) ListContacts(c *gin.Context) {
	q := h.db.Model(&models.Contact{}).Where("tenant_id = ?", tenantID(c))

	if term := c.Query("search"); term != "" {
		cond, params := security.SearchCondition(contactSearchColumns, term)
		if cond != "" {
			q = q.Where(cond, params...)
		}
	}
	if company := c.Query("company"); company != "" {
		q = q.Where("company = ?", company)
	}

	var total int64
	q.Count(&total)

	offset, limit := pagination(c)
	order := security.SortClause(c.Query("sort"), c.Query("dir"), contactSortColumns, "created_at DESC")

	var contacts []models.Contact
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&contacts).Error; err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "total": total})
}

// ContactInput is the create/update payload for contacts
type ContactInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Title     string `json:"title"`
}

// CreateContact adds a contact
// POST /api/contacts
func (h *Handler) CreateContact(c *gin.Context) {
	var req ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	contact := models.Contact{
		TenantID:  tenantID(c),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Title:     req.Title,
	}
	if err := h.db.Create(&contact).Error; err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// GetContact returns one contact
// GET /api/contacts/:id
func (h *Handler) GetContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var contact models.Contact
	if err := h.db.Where("id = ? AND tenant_id = ?", id, tenantID(c)).First(&contact).Error; err != nil {
		notFoundOr(c, err, "contact")
		return
	}
	c.JSON(http.StatusOK, contact)
}

// UpdateContact updates a contact
// PUT /api/contacts/:id
func (h *Handler) UpdateContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var contact models.Contact
	if err := h.db.Where("id = ? AND tenant_id = ?", id, tenantID(c)).First(&contact).Error; err != nil {
		notFoundOr(c, err, "contact")
		return
	}

	var req ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.NewBadRequestError(err.Error()))
		return
	}
	contact.FirstName = req.FirstName
	contact.LastName = req.LastName
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Company = req.Company
	contact.Title = req.Title
	if err := h.db.Save(&contact).Error; err != nil {
		respondError(c, apperr.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, contact)
}

// DeleteContact removes a contact
// DELETE /api/contacts/:id
func (h *Handler) DeleteContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := h.db.Where("id = ? AND tenant_id = ?", id, tenantID(c)).Delete(&models.Contact{})
	if res.Error != nil {
		respondError(c, apperr.NewInternalError(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, apperr.NewNotFoundError("contact"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Package api - Analytics and export handlers
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arvena/talentd/internal/analytics"
	"github.com/arvena/talentd/internal/apperr"
	"github.com/arvena/talentd/internal/export"
	"github.com/arvena/talentd/internal/models"
	"github.com/arvena/talentd/internal/query"
	"github.com/gin-gonic/gin"
)

func candidateRecord(c models.Candidate) query.Record {
	return query.Record{
		"id":         c.ID.String(),
		"tenant_id":  c.TenantID.String(),
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"phone":      c.Phone,
		"position":   c.Position,
		"stage":      c.Stage,
		"source":     c.Source,
		"created_at": c.CreatedAt,
	}
}

func contactRecord(c models.Contact) query.Record {
	return query.Record{
		"id":         c.ID.String(),
		"tenant_id":  c.TenantID.String(),
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"phone":      c.Phone,
		"company":    c.Company,
		"title":      c.Title,
		"created_at": c.CreatedAt,
	}
}

func (h *Handler) candidateRecords(c *gin.Context) ([]query.Record, error) {
	var candidates []models.Candidate
	if err := h.db.Where("tenant_id = ?", tenantID(c)).Find(&candidates).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	records := make([]query.Record, 0, len(candidates))
	for _, cand := range candidates {
		records = append(records, candidateRecord(cand))
	}
	return records, nil
}

func (h *Handler) contactRecords(c *gin.Context) ([]query.Record, error) {
	var contacts []models.Contact
	if err := h.db.Where("tenant_id = ?", tenantID(c)).Find(&contacts).Error; err != nil {
		return nil, apperr.NewInternalError(err)
	}
	records := make([]query.Record, 0, len(contacts))
	for _, contact := range contacts {
		records = append(records, contactRecord(contact))
	}
	return records, nil
}

// AnalyticsSummary returns the dashboard roll-up
// GET /api/analytics/summary
func (h *Handler) AnalyticsSummary(c *gin.Context) {
	candidates, err := h.candidateRecords(c)
	if err != nil {
		respondError(c, err)
		return
	}
	contacts, err := h.contactRecords(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.BuildSummary(candidates, contacts))
}

// AnalyticsByCompany groups contacts by company
// GET /api/analytics/by-company
func (h *Handler) AnalyticsByCompany(c *gin.Context) {
	records, err := h.contactRecords(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": analytics.GroupByKey(records, "company")})
}

// AnalyticsByMonth groups candidates by application month
// GET /api/analytics/by-month
func (h *Handler) AnalyticsByMonth(c *gin.Context) {
	records, err := h.candidateRecords(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": analytics.GroupByMonth(records, "created_at")})
}

// AnalyticsByStage groups candidates by pipeline stage
// GET /api/analytics/by-stage
func (h *Handler) AnalyticsByStage(c *gin.Context) {
	records, err := h.candidateRecords(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": analytics.GroupByKey(records, "stage")})
}

var exportHeaders = map[string][]string{
	"candidates": {"first_name", "last_name", "email", "phone", "position", "stage", "source", "created_at"},
	"contacts":   {"first_name", "last_name", "email", "phone", "company", "title", "created_at"},
}

// ExportRecords streams a tenant's candidates or contacts as CSV or JSON
// GET /api/export/:resource?format=csv|json
func (h *Handler) ExportRecords(c *gin.Context) {
	resource := c.Param("resource")
	header, ok := exportHeaders[resource]
	if !ok {
		respondError(c, apperr.NewNotFoundError("export resource"))
		return
	}

	format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))
	if !format.Valid() {
		respondError(c, apperr.NewBadRequestError("format must be csv or json"))
		return
	}

	var records []query.Record
	var err error
	if resource == "candidates" {
		records, err = h.candidateRecords(c)
	} else {
		records, err = h.contactRecords(c)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", resource, time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, format, header, records); err != nil {
		h.logger.Error("export write failed", "resource", resource, "error", err)
	}
}

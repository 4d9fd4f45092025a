package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
)

const defaultAuditLimit = 100

type auditService interface {
	ByItem(ctx context.Context, itemID string, limit int) ([]models.AuditLogEntry, error)
	Search(ctx context.Context, query dto.AuditQuery) ([]models.AuditLogEntry, error)
	Record(ctx context.Context, req dto.CreateAuditRequest) (*models.AuditLogEntry, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// Search godoc
// @Summary Search audit entries
// @Tags Audit
// @Produce json
// @Param action query string false "Created, Updated, Deleted, Viewed, Approved or Rejected"
// @Param from query string false "RFC 3339 lower bound"
// @Param to query string false "RFC 3339 upper bound"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} models.AuditLogEntry
// @Router /audit [get]
func (h *AuditHandler) Search(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("audit"))
		return
	}
	limit, err := queryLimit(c, defaultAuditLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.AuditQuery{
		Action: c.Query("action"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  limit,
	}
	entries, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// ByItem godoc
// @Summary Audit history of an item
// @Tags Audit
// @Produce json
// @Param itemId path string true "Item ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} models.AuditLogEntry
// @Router /audit/{itemId} [get]
func (h *AuditHandler) ByItem(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("audit"))
		return
	}
	limit, err := queryLimit(c, defaultAuditLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.ByItem(c.Request.Context(), c.Param("itemId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Record godoc
// @Summary Log a manual audit entry
// @Tags Audit
// @Accept json
// @Produce json
// @Param payload body dto.CreateAuditRequest true "Audit entry"
// @Success 201 {object} models.AuditLogEntry
// @Router /audit [post]
func (h *AuditHandler) Record(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("audit"))
		return
	}
	var req dto.CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid audit payload"))
		return
	}
	entry, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, entry)
}

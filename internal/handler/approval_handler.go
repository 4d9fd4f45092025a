package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrooksCoder/RegistrationApp/internal/middleware"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
)

type approvalService interface {
	Approve(ctx context.Context, id int64, actor string) (*models.Item, error)
	Reject(ctx context.Context, id int64, actor string) (*models.Item, error)
	Pending(ctx context.Context) ([]models.Item, error)
	Stats(ctx context.Context) (models.ItemStatusCounts, error)
}

// ApprovalHandler exposes the review workflow.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// Approve godoc
// @Summary Approve a pending item
// @Tags Approvals
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.Item
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending item
// @Tags Approvals
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.Item
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *ApprovalHandler) decide(c *gin.Context, apply func(context.Context, int64, string) (*models.Item, error)) {
	if h.service == nil {
		response.Error(c, notConfigured("approval"))
		return
	}
	id, err := itemIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := apply(c.Request.Context(), id, middleware.ClaimsFromContext(c).Actor())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Pending godoc
// @Summary Items awaiting review
// @Tags Approvals
// @Produce json
// @Success 200 {array} models.Item
// @Router /approvals/pending [get]
func (h *ApprovalHandler) Pending(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("approval"))
		return
	}
	items, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Stats godoc
// @Summary Item counts per status
// @Tags Approvals
// @Produce json
// @Success 200 {object} models.ItemStatusCounts
// @Router /approvals/stats [get]
func (h *ApprovalHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("approval"))
		return
	}
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

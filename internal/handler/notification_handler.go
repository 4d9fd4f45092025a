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

const defaultNotificationLimit = 50

type notificationService interface {
	Send(ctx context.Context, req dto.SendNotificationRequest) (*models.NotificationMessage, error)
	Recent(ctx context.Context, limit int) ([]models.NotificationRecord, error)
	Stats(ctx context.Context) (models.NotificationStats, error)
}

// NotificationHandler exposes the notification ledger and ad-hoc sends.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Recent godoc
// @Summary Recent notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {array} models.NotificationRecord
// @Router /notifications [get]
func (h *NotificationHandler) Recent(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("notification"))
		return
	}
	limit, err := queryLimit(c, defaultNotificationLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Stats godoc
// @Summary Notification counts per status
// @Tags Notifications
// @Produce json
// @Success 200 {object} models.NotificationStats
// @Router /notifications/stats [get]
func (h *NotificationHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("notification"))
		return
	}
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Send godoc
// @Summary Queue an email notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.SendNotificationRequest true "Notification"
// @Success 202 {object} models.NotificationMessage
// @Router /notifications/send [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	if h.service == nil {
		response.Error(c, notConfigured("notification"))
		return
	}
	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid notification payload"))
		return
	}
	msg, err := h.service.Send(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, msg)
}

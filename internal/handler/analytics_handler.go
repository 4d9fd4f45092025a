package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/internal/service"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/export"
	"github.com/BrooksCoder/RegistrationApp/pkg/response"
)

type analyticsService interface {
	Report(ctx context.Context) (models.AnalyticsReport, error)
	Overview(ctx context.Context) (models.AnalyticsOverview, error)
}

type exportService interface {
	Export(ctx context.Context, format export.Format) (*service.ExportResult, error)
}

// AnalyticsHandler exposes dashboard analytics.
type AnalyticsHandler struct {
	analytics analyticsService
	exports   exportService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService, exports exportService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, exports: exports}
}

// Report godoc
// @Summary Item analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} models.AnalyticsReport
// @Router /analytics [get]
func (h *AnalyticsHandler) Report(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, notConfigured("analytics"))
		return
	}
	report, err := h.analytics.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Overview godoc
// @Summary Headline analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} models.AnalyticsOverview
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, notConfigured("analytics"))
		return
	}
	overview, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}

// Export godoc
// @Summary Download the analytics report
// @Tags Analytics
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Router /analytics/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, notConfigured("export"))
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be one of: csv pdf"))
		return
	}
	result, err := h.exports.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/export"
)

const exportMaxItems = 1000

type exportItemSource interface {
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the analytics summary and item listing as a file.
type ExportService struct {
	analytics *AnalyticsService
	items     exportItemSource
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(analytics *AnalyticsService, items exportItemSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		analytics: analytics,
		items:     items,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the current report in format.
func (s *ExportService) Export(ctx context.Context, format export.Format) (*ExportResult, error) {
	summary, err := s.analytics.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, models.ItemFilter{Limit: exportMaxItems})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}

	generatedAt := s.now()
	report := export.Report{
		Title:       "Item Registration Report",
		GeneratedAt: generatedAt,
		Summary: []export.Field{
			{Label: "Total items", Value: strconv.Itoa(summary.TotalItems)},
			{Label: "Pending", Value: strconv.Itoa(summary.PendingItems)},
			{Label: "Approved", Value: strconv.Itoa(summary.ApprovedItems)},
			{Label: "Rejected", Value: strconv.Itoa(summary.RejectedItems)},
			{Label: "Success rate", Value: fmt.Sprintf("%.2f%%", summary.SuccessRate)},
		},
		Table: itemTable(items),
	}

	data, err := export.RendererFor(format).Render(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.logger.Info("analytics export generated", zap.String("format", string(format)), zap.Int("items", len(items)), zap.Int("bytes", len(data)))
	return &ExportResult{
		Filename:    export.Filename("items-report", format, generatedAt),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func itemTable(items []models.Item) export.Table {
	table := export.Table{
		Headers: []string{"ID", "Name", "Status", "Created", "Updated"},
		Rows:    make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		updated := ""
		if item.UpdatedAt != nil {
			updated = item.UpdatedAt.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, map[string]string{
			"ID":      strconv.FormatInt(item.ID, 10),
			"Name":    item.Name,
			"Status":  string(item.Status),
			"Created": item.CreatedAt.UTC().Format(time.RFC3339),
			"Updated": updated,
		})
	}
	return table
}

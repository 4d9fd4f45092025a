package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/export"
)

type stubAuditCounter struct {
	n   int64
	err error
}

func (s stubAuditCounter) Count(context.Context) (int64, error) { return s.n, s.err }

type stubNotificationStats struct {
	stats models.NotificationStats
	err   error
}

func (s stubNotificationStats) Stats(context.Context) (models.NotificationStats, error) {
	return s.stats, s.err
}

func TestSummarizeEmptyStore(t *testing.T) {
	svc := NewAnalyticsService(newMemoryItemStore(), nil, nil, nil, zap.NewNop())
	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ItemSummary{}, summary)
}

func TestSummarizeSuccessRate(t *testing.T) {
	store := newMemoryItemStore()
	store.seed("a", models.ItemStatusApproved)
	store.seed("b", models.ItemStatusApproved)
	store.seed("c", models.ItemStatusPending)
	store.seed("d", models.ItemStatusRejected)
	svc := NewAnalyticsService(store, nil, nil, NewMetricsService(), zap.NewNop())

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalItems)
	assert.Equal(t, 2, summary.ApprovedItems)
	assert.Equal(t, 1, summary.RejectedItems)
	assert.Equal(t, 1, summary.PendingItems)
	assert.Equal(t, 75.00, summary.SuccessRate)
}

func TestSummarizeRoundsToTwoDecimals(t *testing.T) {
	counts := models.ItemStatusCounts{Approved: 2, Rejected: 1}
	assert.Equal(t, 66.67, summarize(counts).SuccessRate)
}

func TestSummarizeStoreFailure(t *testing.T) {
	store := newMemoryItemStore()
	store.err = errors.New("db down")
	_, err := NewAnalyticsService(store, nil, nil, nil, nil).Summarize(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestReportToleratesMissingSources(t *testing.T) {
	store := newMemoryItemStore()
	store.seed("a", models.ItemStatusPending)
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/api/items", 200, 40*time.Millisecond)
	metrics.ObserveHTTPRequest("GET", "/api/items", 200, 20*time.Millisecond)

	svc := NewAnalyticsService(store,
		stubAuditCounter{err: errors.New("mongo down")},
		stubNotificationStats{stats: models.NotificationStats{Queued: 3}},
		metrics, zap.NewNop())

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalItems)
	assert.Zero(t, report.AuditCount)
	assert.Equal(t, 3, report.QueueDepth)
	assert.Equal(t, 30.0, report.APIResponseTime)
}

type stubQueueDepth struct {
	n   int64
	err error
}

func (s stubQueueDepth) Depth(context.Context) (int64, error) { return s.n, s.err }

func TestReportPrefersTransportQueueDepth(t *testing.T) {
	store := newMemoryItemStore()
	svc := NewAnalyticsService(store, nil, stubNotificationStats{stats: models.NotificationStats{Queued: 3}}, nil, zap.NewNop())

	svc.UseQueueDepth(stubQueueDepth{n: 8})
	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, report.QueueDepth)

	svc.UseQueueDepth(stubQueueDepth{err: errors.New("redis down")})
	report, err = svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.QueueDepth, "ledger backs up an unreachable transport")
}

func TestOverviewCountsApprovalsThisMonth(t *testing.T) {
	store := newMemoryItemStore()
	svc := NewAnalyticsService(store, stubAuditCounter{n: 7}, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

	thisMonth := store.seed("a", models.ItemStatusPending)
	lastMonth := store.seed("b", models.ItemStatusPending)
	store.seed("c", models.ItemStatusPending)
	_, _ = store.TransitionStatus(context.Background(), thisMonth.ID, models.ItemStatusPending, models.ItemStatusApproved, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	_, _ = store.TransitionStatus(context.Background(), lastMonth.ID, models.ItemStatusPending, models.ItemStatusApproved, time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC))

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AnalyticsOverview{
		TotalItems:        3,
		PendingApprovals:  1,
		ApprovedThisMonth: 1,
		SuccessRate:       100,
	}, overview)
}

func TestExportCSV(t *testing.T) {
	store := newMemoryItemStore()
	store.seed("Widget", models.ItemStatusApproved)
	store.seed("Gadget", models.ItemStatusRejected)
	analytics := NewAnalyticsService(store, nil, nil, nil, zap.NewNop())
	svc := NewExportService(analytics, store, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) }

	result, err := svc.Export(context.Background(), export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "items-report-20250315.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	assert.Contains(t, string(result.Data), "Success rate,50.00%")
	assert.Contains(t, string(result.Data), "Widget,Approved")
}

func TestExportPDF(t *testing.T) {
	store := newMemoryItemStore()
	store.seed("Widget", models.ItemStatusPending)
	svc := NewExportService(NewAnalyticsService(store, nil, nil, nil, nil), store, nil)

	result, err := svc.Export(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

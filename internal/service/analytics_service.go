package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

// AnalyticsRepository describes the item counts required by AnalyticsService.
type AnalyticsRepository interface {
	CountByStatus(ctx context.Context) (models.ItemStatusCounts, error)
	CountReachedSince(ctx context.Context, status models.ItemStatus, since time.Time) (int, error)
}

type auditCounter interface {
	Count(ctx context.Context) (int64, error)
}

type notificationStatsSource interface {
	Stats(ctx context.Context) (models.NotificationStats, error)
}

// QueueDepthSource reports messages waiting on the notification transport.
type QueueDepthSource interface {
	Depth(ctx context.Context) (int64, error)
}

// AnalyticsService computes live aggregates over the item store. Nothing is
// cached; every call reads current data.
type AnalyticsService struct {
	repo          AnalyticsRepository
	audits        auditCounter
	notifications notificationStatsSource
	queue         QueueDepthSource
	metrics       *MetricsService
	now           func() time.Time
	logger        *zap.Logger
}

// NewAnalyticsService constructs an analytics service. audits and
// notifications may be nil; their figures then report zero.
func NewAnalyticsService(repo AnalyticsRepository, audits auditCounter, notifications notificationStatsSource, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		repo:          repo,
		audits:        audits,
		notifications: notifications,
		metrics:       metrics,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

// UseQueueDepth reads queueDepth from the transport instead of the pending
// rows of the notification ledger.
func (s *AnalyticsService) UseQueueDepth(queue QueueDepthSource) {
	s.queue = queue
}

// Summarize returns item totals and the success rate, the share of items not
// rejected, as a percentage rounded to two decimals. An empty store reports
// a rate of zero.
func (s *AnalyticsService) Summarize(ctx context.Context) (models.ItemSummary, error) {
	start := time.Now()
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return models.ItemSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item counts")
	}
	s.metrics.ObserveDBQuery("analytics_counts", time.Since(start))
	return summarize(counts), nil
}

// Report extends the summary with audit volume, queued notifications and
// the average API response time. Failures of the extra sources are logged
// and reported as zero.
func (s *AnalyticsService) Report(ctx context.Context) (models.AnalyticsReport, error) {
	summary, err := s.Summarize(ctx)
	if err != nil {
		return models.AnalyticsReport{}, err
	}
	report := models.AnalyticsReport{ItemSummary: summary}
	if s.audits != nil {
		if n, err := s.audits.Count(ctx); err != nil {
			s.logger.Warn("audit count unavailable", zap.String("kind", appErrors.ErrDependencyUnavailable.Code), zap.Error(err))
		} else {
			report.AuditCount = n
		}
	}
	report.QueueDepth = s.queueDepth(ctx)
	report.APIResponseTime = round2(s.metrics.Snapshot().AverageRequestDurationMs)
	return report, nil
}

// queueDepth prefers the live transport depth and falls back to the ledger.
func (s *AnalyticsService) queueDepth(ctx context.Context) int {
	if s.queue != nil {
		depth, err := s.queue.Depth(ctx)
		if err == nil {
			return int(depth)
		}
		s.logger.Warn("queue depth unavailable", zap.String("kind", appErrors.ErrDependencyUnavailable.Code), zap.Error(err))
	}
	if s.notifications == nil {
		return 0
	}
	stats, err := s.notifications.Stats(ctx)
	if err != nil {
		s.logger.Warn("notification stats unavailable", zap.String("kind", appErrors.ErrDependencyUnavailable.Code), zap.Error(err))
		return 0
	}
	return stats.Queued
}

// Overview returns the dashboard headline figures.
func (s *AnalyticsService) Overview(ctx context.Context) (models.AnalyticsOverview, error) {
	summary, err := s.Summarize(ctx)
	if err != nil {
		return models.AnalyticsOverview{}, err
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	approved, err := s.repo.CountReachedSince(ctx, models.ItemStatusApproved, monthStart)
	if err != nil {
		return models.AnalyticsOverview{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approvals")
	}
	return models.AnalyticsOverview{
		TotalItems:        summary.TotalItems,
		PendingApprovals:  summary.PendingItems,
		ApprovedThisMonth: approved,
		SuccessRate:       summary.SuccessRate,
	}, nil
}

func summarize(counts models.ItemStatusCounts) models.ItemSummary {
	total := counts.Total()
	summary := models.ItemSummary{
		TotalItems:    total,
		ApprovedItems: counts.Approved,
		RejectedItems: counts.Rejected,
		PendingItems:  counts.Pending,
	}
	if total > 0 {
		summary.SuccessRate = round2(float64(total-counts.Rejected) / float64(total) * 100)
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

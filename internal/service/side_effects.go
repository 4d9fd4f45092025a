package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/audit"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/internal/notify"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
	"github.com/BrooksCoder/RegistrationApp/pkg/jobs"
)

const (
	effectAudit     = "audit"
	effectNotify    = "notification"
	effectTelemetry = "telemetry"
)

// SideEffects runs the dependent writes that follow a committed item change.
// Each one is isolated: a failure or panic is logged and counted, never
// returned.
type SideEffects struct {
	audit     audit.Sink
	notifier  notify.Dispatcher
	metrics   *MetricsService
	recipient string
	logger    *zap.Logger
}

// NewSideEffects wires the capabilities. Nil sinks fall back to no-op
// implementations.
func NewSideEffects(sink audit.Sink, notifier notify.Dispatcher, metrics *MetricsService, recipient string, logger *zap.Logger) *SideEffects {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = audit.NewNoopSink(logger)
	}
	if notifier == nil {
		notifier = notify.NewNoopDispatcher(nil, nil, logger)
	}
	return &SideEffects{audit: sink, notifier: notifier, metrics: metrics, recipient: recipient, logger: logger}
}

func (s *SideEffects) run(effect string, fn func() error) {
	if err := jobs.Safely(fn); err != nil {
		s.logger.Warn("side effect failed",
			zap.String("kind", appErrors.ErrDependencyUnavailable.Code),
			zap.String("effect", effect),
			zap.Error(err),
		)
		s.metrics.RecordSideEffectFailure(effect)
	}
}

// Audit records entry, stamping the request meta from ctx.
func (s *SideEffects) Audit(ctx context.Context, entry models.AuditLogEntry) {
	meta := RequestMetaFrom(ctx)
	if entry.ChangedBy == "" {
		entry.ChangedBy = meta.Actor
	}
	if entry.IPAddress == "" {
		entry.IPAddress = meta.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = meta.UserAgent
	}
	s.run(effectAudit, func() error {
		s.audit.Record(ctx, entry)
		return nil
	})
}

// AuditItem records action against item.
func (s *SideEffects) AuditItem(ctx context.Context, action models.AuditAction, item *models.Item, details map[string]interface{}) {
	s.Audit(ctx, models.AuditLogEntry{
		ItemID:          strconv.FormatInt(item.ID, 10),
		Action:          action,
		ItemName:        item.Name,
		ItemDescription: item.Description,
		Details:         details,
	})
}

// Notify enqueues msg addressed to the default recipient unless it names one.
func (s *SideEffects) Notify(ctx context.Context, msg models.NotificationMessage) {
	if msg.Email == "" {
		msg.Email = s.recipient
	}
	s.run(effectNotify, func() error {
		s.notifier.Enqueue(ctx, msg)
		return nil
	})
}

// NotifyItem sends subject about item.
func (s *SideEffects) NotifyItem(ctx context.Context, subject string, item *models.Item) {
	id := item.ID
	s.Notify(ctx, models.NotificationMessage{
		Subject: subject + ": " + item.Name,
		Body:    item.Description,
		ItemID:  &id,
	})
}

// Track counts a lifecycle event.
func (s *SideEffects) Track(event string) {
	s.run(effectTelemetry, func() error {
		s.metrics.TrackEvent(event)
		return nil
	})
}

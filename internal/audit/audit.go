// Package audit records the append-only item history. Recording is
// best-effort: a sink never returns an error to its caller, it logs and moves
// on.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

// Sink accepts audit entries. Record always returns the entry id, even when
// the write failed.
type Sink interface {
	Record(ctx context.Context, entry models.AuditLogEntry) string
}

// Reader queries the audit trail. Results are ordered newest first.
type Reader interface {
	Find(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, error)
	Count(ctx context.Context) (int64, error)
}

// Store is the durable backend a sink writes to.
type Store interface {
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
}

// prepare fills generated fields: id, timestamp, actor and partition key.
func prepare(entry *models.AuditLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ChangedBy == "" {
		entry.ChangedBy = models.AuditDefaultActor
	}
	if entry.ItemID == "" {
		entry.ItemID = models.AuditSystemPartition
	}
	entry.Partition = entry.ItemID
}

func logFailure(logger *zap.Logger, entry models.AuditLogEntry, err error) {
	logger.Warn("failed to persist audit entry",
		zap.String("kind", appErrors.ErrDependencyUnavailable.Code),
		zap.String("audit_id", entry.ID),
		zap.String("item_id", entry.ItemID),
		zap.String("action", string(entry.Action)),
		zap.Error(err),
	)
}

// StoreSink writes synchronously with a bounded timeout.
type StoreSink struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger
}

// NewStoreSink wraps store.
func NewStoreSink(store Store, timeout time.Duration, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &StoreSink{store: store, timeout: timeout, logger: logger}
}

// Record implements Sink. The write is detached from the caller's
// cancellation so a client disconnect does not drop the entry.
func (s *StoreSink) Record(ctx context.Context, entry models.AuditLogEntry) string {
	prepare(&entry)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.store.Insert(writeCtx, &entry); err != nil {
		logFailure(s.logger, entry, err)
	}
	return entry.ID
}

// NoopSink is used when no audit store is configured.
type NoopSink struct {
	logger *zap.Logger
}

// NewNoopSink builds a sink that only logs.
func NewNoopSink(logger *zap.Logger) *NoopSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopSink{logger: logger}
}

// Record implements Sink.
func (s *NoopSink) Record(_ context.Context, entry models.AuditLogEntry) string {
	prepare(&entry)
	s.logger.Debug("audit store not configured, entry dropped",
		zap.String("audit_id", entry.ID),
		zap.String("item_id", entry.ItemID),
		zap.String("action", string(entry.Action)),
	)
	return entry.ID
}

// EmptyReader answers queries when no audit store is configured.
type EmptyReader struct{}

// Find implements Reader.
func (EmptyReader) Find(context.Context, models.AuditFilter) ([]models.AuditLogEntry, error) {
	return []models.AuditLogEntry{}, nil
}

// Count implements Reader.
func (EmptyReader) Count(context.Context) (int64, error) { return 0, nil }

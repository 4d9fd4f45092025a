// Package notify hands notification messages to a queue for an out-of-process
// consumer and implements that consumer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/pkg/config"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

// Dispatcher enqueues notifications. Enqueue never fails the caller; problems
// are logged and recorded in the ledger.
type Dispatcher interface {
	Enqueue(ctx context.Context, msg models.NotificationMessage)
}

// Publisher writes one encoded message to a queue transport.
type Publisher interface {
	Publish(ctx context.Context, id string, body []byte) error
	Transport() string
	Close(ctx context.Context) error
}

// Recorder stores the dispatch outcome of each message. A row is created
// before the message is published so that consumer updates always find it.
type Recorder interface {
	Create(ctx context.Context, record *models.NotificationRecord) error
	UpdateStatus(ctx context.Context, id string, status models.NotificationStatus, lastError *string) (bool, error)
}

// Observer receives publish outcomes, typically a metrics collector.
type Observer interface {
	ObserveNotification(transport, outcome string)
}

// Encode fills generated fields and marshals the canonical queue payload.
func Encode(msg *models.NotificationMessage) ([]byte, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode notification %s: %w", msg.ID, err)
	}
	return body, nil
}

// QueueDispatcher publishes through a Publisher with a bounded timeout.
type QueueDispatcher struct {
	publisher Publisher
	recorder  Recorder
	observer  Observer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewQueueDispatcher builds a dispatcher. recorder and observer may be nil.
func NewQueueDispatcher(publisher Publisher, recorder Recorder, observer Observer, timeout time.Duration, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &QueueDispatcher{publisher: publisher, recorder: recorder, observer: observer, timeout: timeout, logger: logger}
}

// Enqueue implements Dispatcher.
func (d *QueueDispatcher) Enqueue(ctx context.Context, msg models.NotificationMessage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	recordCtx := context.WithoutCancel(ctx)

	transport := d.publisher.Transport()
	body, err := Encode(&msg)
	if err != nil {
		d.fail(recordCtx, msg, transport, err, false)
		return
	}

	recorded := record(recordCtx, d.recorder, d.logger, msg, models.NotificationStatusPending, transport, nil)
	if err := d.publisher.Publish(ctx, msg.ID, body); err != nil {
		d.fail(recordCtx, msg, transport, err, recorded)
		return
	}
	d.logger.Info("notification queued",
		zap.String("notification_id", msg.ID),
		zap.String("transport", transport),
	)
	if d.observer != nil {
		d.observer.ObserveNotification(transport, string(models.NotificationStatusPending))
	}
}

// fail logs a dispatch failure and marks the ledger row Failed, creating it
// when the pending row could not be written.
func (d *QueueDispatcher) fail(ctx context.Context, msg models.NotificationMessage, transport string, cause error, recorded bool) {
	d.logger.Warn("failed to publish notification",
		zap.String("kind", appErrors.ErrDependencyUnavailable.Code),
		zap.String("notification_id", msg.ID),
		zap.String("transport", transport),
		zap.Error(cause),
	)
	if d.observer != nil {
		d.observer.ObserveNotification(transport, string(models.NotificationStatusFailed))
	}
	reason := cause.Error()
	if !recorded {
		record(ctx, d.recorder, d.logger, msg, models.NotificationStatusFailed, transport, &reason)
		return
	}
	if _, err := d.recorder.UpdateStatus(ctx, msg.ID, models.NotificationStatusFailed, &reason); err != nil {
		d.logger.Warn("failed to record notification",
			zap.String("kind", appErrors.ErrDependencyUnavailable.Code),
			zap.String("notification_id", msg.ID),
			zap.Error(err),
		)
	}
}

// NoopDispatcher is used when no transport is configured. Messages are
// logged and recorded as skipped.
type NoopDispatcher struct {
	recorder Recorder
	observer Observer
	logger   *zap.Logger
}

// NewNoopDispatcher builds the fallback dispatcher. recorder and observer may
// be nil.
func NewNoopDispatcher(recorder Recorder, observer Observer, logger *zap.Logger) *NoopDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopDispatcher{recorder: recorder, observer: observer, logger: logger}
}

// Enqueue implements Dispatcher.
func (d *NoopDispatcher) Enqueue(ctx context.Context, msg models.NotificationMessage) {
	if _, err := Encode(&msg); err != nil {
		d.logger.Warn("failed to encode notification", zap.Error(err))
		return
	}
	d.logger.Info("notification transport not configured, message skipped",
		zap.String("notification_id", msg.ID),
		zap.String("email", msg.Email),
		zap.String("subject", msg.Subject),
	)
	if d.observer != nil {
		d.observer.ObserveNotification(config.TransportNone, string(models.NotificationStatusSkipped))
	}
	record(context.WithoutCancel(ctx), d.recorder, d.logger, msg, models.NotificationStatusSkipped, config.TransportNone, nil)
}

func record(ctx context.Context, recorder Recorder, logger *zap.Logger, msg models.NotificationMessage, status models.NotificationStatus, transport string, lastErr *string) bool {
	if recorder == nil {
		return false
	}
	rec := &models.NotificationRecord{
		ID:             msg.ID,
		ItemID:         msg.ItemID,
		RecipientEmail: msg.Email,
		Subject:        msg.Subject,
		Body:           msg.Body,
		Status:         status,
		Transport:      transport,
		LastError:      lastErr,
		CreatedAt:      msg.Timestamp,
	}
	if err := recorder.Create(ctx, rec); err != nil {
		logger.Warn("failed to record notification",
			zap.String("kind", appErrors.ErrDependencyUnavailable.Code),
			zap.String("notification_id", msg.ID),
			zap.Error(err),
		)
		return false
	}
	return true
}

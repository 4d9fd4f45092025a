package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/pkg/jobs"
)

// Delivery is one received message awaiting settlement.
type Delivery interface {
	ID() string
	Body() []byte
	Attempts() int
	Complete(ctx context.Context) error
	Abandon(ctx context.Context) error
	DeadLetter(ctx context.Context, reason string) error
}

// Subscriber receives messages from a queue transport.
type Subscriber interface {
	Receive(ctx context.Context, max int) ([]Delivery, error)
	Close(ctx context.Context) error
}

// Mailer delivers a decoded notification.
type Mailer interface {
	Send(ctx context.Context, n Notification) error
}

// Claimer deduplicates deliveries by message id. Claim takes a short-lived
// in-flight hold and returns false once the id has been confirmed delivered.
// An id held by another attempt is reported as an error so the message is
// retried rather than dropped. Confirm marks the id delivered.
type Claimer interface {
	Claim(ctx context.Context, id string) (bool, error)
	Confirm(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
}

// StatusUpdater records the delivery outcome in the notification ledger.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status models.NotificationStatus, lastError *string) (bool, error)
}

// ConsumerConfig tunes the receive loop.
type ConsumerConfig struct {
	BatchSize   int
	MaxAttempts int
	ErrorDelay  time.Duration
}

// Consumer drains a Subscriber and delivers each message at most once per id.
type Consumer struct {
	sub      Subscriber
	mailer   Mailer
	claims   Claimer
	statuses StatusUpdater
	cfg      ConsumerConfig
	logger   *zap.Logger
}

// NewConsumer builds a consumer. statuses may be nil.
func NewConsumer(sub Subscriber, mailer Mailer, claims Claimer, statuses StatusUpdater, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ErrorDelay <= 0 {
		cfg.ErrorDelay = 2 * time.Second
	}
	if claims == nil {
		claims = NewMemoryClaims()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{sub: sub, mailer: mailer, claims: claims, statuses: statuses, cfg: cfg, logger: logger}
}

// Run receives until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("notification consumer started")
	for {
		if ctx.Err() != nil {
			c.logger.Info("notification consumer stopped")
			return nil
		}
		deliveries, err := c.sub.Receive(ctx, c.cfg.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warn("receive failed", zap.Error(err))
			c.backoff(ctx)
			continue
		}
		for _, d := range deliveries {
			c.Handle(ctx, d)
		}
	}
}

// Handle processes a single delivery and settles it.
func (c *Consumer) Handle(ctx context.Context, d Delivery) {
	settleCtx := context.WithoutCancel(ctx)
	log := c.logger.With(zap.String("message_id", d.ID()), zap.Int("attempt", d.Attempts()))

	n, err := Decode(d.Body(), d.ID())
	if err != nil {
		log.Warn("dead-lettering undecodable message", zap.Error(err))
		c.settle(log, d.DeadLetter(settleCtx, "undecodable"))
		return
	}
	log = log.With(zap.String("notification_id", n.ID))

	claimed, err := c.claims.Claim(settleCtx, n.ID)
	if err != nil {
		log.Warn("delivery claim unavailable, retrying later", zap.Error(err))
		c.settle(log, d.Abandon(settleCtx))
		c.backoff(ctx)
		return
	}
	if !claimed {
		log.Info("duplicate notification skipped")
		c.settle(log, d.Complete(settleCtx))
		return
	}

	if err := jobs.Safely(func() error { return c.mailer.Send(ctx, n) }); err != nil {
		if rerr := c.claims.Release(settleCtx, n.ID); rerr != nil {
			log.Warn("failed to release delivery claim", zap.Error(rerr))
		}
		c.updateStatus(settleCtx, log, n.ID, models.NotificationStatusFailed, err)
		if d.Attempts() >= c.cfg.MaxAttempts {
			log.Error("delivery failed, dead-lettering", zap.Error(err))
			c.settle(log, d.DeadLetter(settleCtx, "delivery failed"))
			return
		}
		log.Warn("delivery failed, abandoning for retry", zap.Error(err))
		c.settle(log, d.Abandon(settleCtx))
		return
	}

	if err := c.claims.Confirm(settleCtx, n.ID); err != nil {
		log.Warn("failed to confirm delivery claim", zap.Error(err))
	}
	c.updateStatus(settleCtx, log, n.ID, models.NotificationStatusSent, nil)
	c.settle(log, d.Complete(settleCtx))
	log.Info("notification delivered", zap.String("email", n.RecipientEmail))
}

func (c *Consumer) updateStatus(ctx context.Context, log *zap.Logger, id string, status models.NotificationStatus, cause error) {
	if c.statuses == nil {
		return
	}
	var lastErr *string
	if cause != nil {
		msg := cause.Error()
		lastErr = &msg
	}
	if _, err := c.statuses.UpdateStatus(ctx, id, status, lastErr); err != nil {
		log.Warn("failed to update notification ledger", zap.Error(err))
	}
}

func (c *Consumer) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.ErrorDelay):
	}
}

func (c *Consumer) settle(log *zap.Logger, err error) {
	if err != nil {
		log.Warn("failed to settle message", zap.Error(err))
	}
}

// LogMailer writes notifications to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a mailer backed by logger.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(_ context.Context, n Notification) error {
	if n.RecipientEmail == "" {
		return errors.New("recipient email is required")
	}
	m.logger.Info("email notification",
		zap.String("to", n.RecipientEmail),
		zap.String("recipient_name", n.RecipientName),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
		zap.String("created_by", n.CreatedBy),
		zap.Time("created_at", n.CreatedAt),
	)
	return nil
}

// MemoryClaims is a process-local Claimer for deployments without Redis.
type MemoryClaims struct {
	mu        sync.Mutex
	delivered map[string]bool
}

// NewMemoryClaims builds an empty claim set.
func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{delivered: make(map[string]bool)}
}

// Claim implements Claimer.
func (m *MemoryClaims) Claim(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delivered, ok := m.delivered[id]
	switch {
	case !ok:
		m.delivered[id] = false
		return true, nil
	case delivered:
		return false, nil
	}
	return false, fmt.Errorf("notification %s is already being delivered", id)
}

// Confirm implements Claimer.
func (m *MemoryClaims) Confirm(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered[id] = true
	return nil
}

// Release implements Claimer.
func (m *MemoryClaims) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.delivered, id)
	return nil
}

package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/pkg/jobs"
)

const jobTypeAuditWrite = "audit.write"

// AsyncConfig tunes the background writer.
type AsyncConfig struct {
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

// AsyncSink hands entries to a bounded in-memory queue. Workers write them
// with linear backoff retries; entries that still fail are logged and
// dropped. A full buffer drops the entry immediately rather than blocking the
// request.
type AsyncSink struct {
	store   Store
	queue   *jobs.Queue
	timeout time.Duration
	logger  *zap.Logger
	onDrop  func(models.AuditLogEntry, error)
}

// NewAsyncSink builds the sink. Call Start before use and Stop on shutdown to
// flush buffered entries.
func NewAsyncSink(store Store, cfg AsyncConfig, logger *zap.Logger) *AsyncSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	s := &AsyncSink{store: store, timeout: cfg.WriteTimeout, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		DeadLetter: s.deadLetter,
	})
	return s
}

// OnDrop registers a callback invoked for every entry that is given up on.
func (s *AsyncSink) OnDrop(fn func(models.AuditLogEntry, error)) {
	s.onDrop = fn
}

// Start launches the workers.
func (s *AsyncSink) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the buffer and waits for workers.
func (s *AsyncSink) Stop() {
	s.queue.Stop()
}

// Pending reports buffered entries.
func (s *AsyncSink) Pending() int {
	return s.queue.Len()
}

// Record implements Sink.
func (s *AsyncSink) Record(_ context.Context, entry models.AuditLogEntry) string {
	prepare(&entry)
	if err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: jobTypeAuditWrite, Payload: entry}); err != nil {
		s.deadLetter(jobs.Job{ID: entry.ID, Payload: entry}, err)
	}
	return entry.ID
}

func (s *AsyncSink) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLogEntry)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return s.store.Insert(writeCtx, &entry)
}

func (s *AsyncSink) deadLetter(job jobs.Job, err error) {
	entry, _ := job.Payload.(models.AuditLogEntry)
	logFailure(s.logger, entry, err)
	if s.onDrop != nil {
		s.onDrop(entry, err)
	}
}

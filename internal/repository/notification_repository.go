package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
)

const notificationColumns = `id, item_id, recipient_email, subject, body, status, transport, last_error, created_at, updated_at`

// NotificationRepository is the ledger of dispatched notifications.
type NotificationRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB, timeout time.Duration) *NotificationRepository {
	return &NotificationRepository{db: db, timeout: timeout}
}

func (r *NotificationRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Create records a notification outcome.
func (r *NotificationRepository) Create(ctx context.Context, record *models.NotificationRecord) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO notifications (` + notificationColumns + `)
	VALUES (:id, :item_id, :recipient_email, :subject, :body, :status, :transport, :last_error, :created_at, :updated_at)
	ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// UpdateStatus records a later outcome, typically from the consumer. Unknown
// ids are ignored so that messages published without a ledger row still
// complete.
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id string, status models.NotificationStatus, lastError *string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	const query = `UPDATE notifications SET status = $2, last_error = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, lastError, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update notification status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check notification update rows: %w", err)
	}
	return rows > 0, nil
}

// ListRecent returns the newest records first.
func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if limit <= 0 || limit > 500 {
		limit = 50
	}
	records := make([]models.NotificationRecord, 0)
	query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY created_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return records, nil
}

// Stats tallies the ledger by status.
func (r *NotificationRepository) Stats(ctx context.Context) (models.NotificationStats, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	const query = `SELECT
	COUNT(*) FILTER (WHERE status = 'Pending') AS queued,
	COUNT(*) FILTER (WHERE status = 'Sent') AS sent,
	COUNT(*) FILTER (WHERE status = 'Failed') AS failed,
	COUNT(*) FILTER (WHERE status = 'Skipped') AS skipped
	FROM notifications`
	var stats models.NotificationStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return models.NotificationStats{}, fmt.Errorf("notification stats: %w", err)
	}
	return stats, nil
}

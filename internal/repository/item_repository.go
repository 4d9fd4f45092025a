package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
)

const itemColumns = `id, name, description, status, image_key, image_url, created_at, updated_at`

// ItemRepository persists items in PostgreSQL.
type ItemRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewItemRepository constructs the repository. Every statement runs under
// timeout when it is positive.
func NewItemRepository(db *sqlx.DB, timeout time.Duration) *ItemRepository {
	return &ItemRepository{db: db, timeout: timeout}
}

func (r *ItemRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Create inserts a new item and fills in the generated id and defaults.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if item.Status == "" {
		item.Status = models.ItemStatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO items (name, description, status, image_key, image_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		item.Name, item.Description, item.Status, item.ImageKey, item.ImageURL, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetByID fetches an item. A missing row surfaces as sql.ErrNoRows.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var item models.Item
	if err := r.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items newest first, optionally narrowed to one status.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	builder := strings.Builder{}
	args := make([]interface{}, 0, 1)
	builder.WriteString(`SELECT ` + itemColumns + ` FROM items`)
	if filter.Status != "" {
		args = append(args, filter.Status)
		builder.WriteString(fmt.Sprintf(" WHERE status = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset))
	}

	items := make([]models.Item, 0)
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// UpdateDetails replaces name and description. Status and timestamps are
// left alone.
func (r *ItemRepository) UpdateDetails(ctx context.Context, id int64, name, description string) (*models.Item, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	const query = `UPDATE items SET name = $2, description = $3 WHERE id = $1 RETURNING ` + itemColumns
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id, name, description); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &item, nil
}

// TransitionStatus moves an item from one status to another in a single
// conditional statement. sql.ErrNoRows means the item is missing or no
// longer in the expected status.
func (r *ItemRepository) TransitionStatus(ctx context.Context, id int64, from, to models.ItemStatus, at time.Time) (*models.Item, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	const query = `UPDATE items SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2 RETURNING ` + itemColumns
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id, from, to, at); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("transition item status: %w", err)
	}
	return &item, nil
}

// Delete removes an item and returns the deleted row.
func (r *ItemRepository) Delete(ctx context.Context, id int64) (*models.Item, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var item models.Item
	if err := r.db.GetContext(ctx, &item, `DELETE FROM items WHERE id = $1 RETURNING `+itemColumns, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return &item, nil
}

// CountByStatus tallies items per status in one scan.
func (r *ItemRepository) CountByStatus(ctx context.Context) (models.ItemStatusCounts, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	const query = `SELECT
	COUNT(*) FILTER (WHERE status = 'Pending') AS pending,
	COUNT(*) FILTER (WHERE status = 'Approved') AS approved,
	COUNT(*) FILTER (WHERE status = 'Rejected') AS rejected
	FROM items`
	var counts models.ItemStatusCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.ItemStatusCounts{}, fmt.Errorf("count items by status: %w", err)
	}
	return counts, nil
}

// CountReachedSince counts items that entered status at or after since.
func (r *ItemRepository) CountReachedSince(ctx context.Context, status models.ItemStatus, since time.Time) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var count int
	const query = `SELECT COUNT(*) FROM items WHERE status = $1 AND updated_at >= $2`
	if err := r.db.GetContext(ctx, &count, query, status, since); err != nil {
		return 0, fmt.Errorf("count items reached since: %w", err)
	}
	return count, nil
}

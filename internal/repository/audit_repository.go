package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditRepository stores audit entries as MongoDB documents.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository wraps the audit collection.
func NewAuditRepository(coll *mongo.Collection) *AuditRepository {
	return &AuditRepository{coll: coll}
}

// EnsureIndexes creates the indexes backing the by-item and by-action queries.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "partition", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// Insert appends one entry.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Find returns entries matching filter, newest first.
func (r *AuditRepository) Find(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, error) {
	query := bson.D{}
	if filter.ItemID != "" {
		query = append(query, bson.E{Key: "partition", Value: filter.ItemID})
	}
	if filter.Action != "" {
		query = append(query, bson.E{Key: "action", Value: filter.Action})
	}
	if filter.From != nil || filter.To != nil {
		window := bson.D{}
		if filter.From != nil {
			window = append(window, bson.E{Key: "$gte", Value: *filter.From})
		}
		if filter.To != nil {
			window = append(window, bson.E{Key: "$lte", Value: *filter.To})
		}
		query = append(query, bson.E{Key: "timestamp", Value: window})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit entries: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	entries := make([]models.AuditLogEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}
	return entries, nil
}

// Count returns the approximate number of entries.
func (r *AuditRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

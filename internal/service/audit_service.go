package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/audit"
	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

// AuditService exposes the audit trail and manual audit entries.
type AuditService struct {
	reader    audit.Reader
	effects   *SideEffects
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuditService constructs the audit service. A nil reader answers every
// query with an empty list.
func NewAuditService(reader audit.Reader, effects *SideEffects, validate *validator.Validate, logger *zap.Logger) *AuditService {
	if reader == nil {
		reader = audit.EmptyReader{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if effects == nil {
		effects = NewSideEffects(nil, nil, nil, "", logger)
	}
	return &AuditService{reader: reader, effects: effects, validator: validate, logger: logger}
}

// ByItem returns the history of one item, newest first.
func (s *AuditService) ByItem(ctx context.Context, itemID string, limit int) ([]models.AuditLogEntry, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "itemId is required")
	}
	return s.find(ctx, models.AuditFilter{ItemID: itemID, Limit: limit})
}

// Search filters the whole trail by action and time range.
func (s *AuditService) Search(ctx context.Context, query dto.AuditQuery) ([]models.AuditLogEntry, error) {
	filter := models.AuditFilter{Limit: query.Limit}
	if query.Action != "" {
		action := models.AuditAction(query.Action)
		if !models.ValidAuditAction(action) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown audit action "+query.Action)
		}
		filter.Action = action
	}
	var err error
	if filter.From, err = parseOptionalTime("from", query.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseOptionalTime("to", query.To); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	return s.find(ctx, filter)
}

// Record stores a manual entry and returns it with its generated id.
func (s *AuditService) Record(ctx context.Context, req dto.CreateAuditRequest) (*models.AuditLogEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	entry := models.AuditLogEntry{
		ID:              uuid.NewString(),
		ItemID:          strings.TrimSpace(req.ItemID),
		Action:          models.AuditAction(req.Action),
		ItemName:        req.ItemName,
		ItemDescription: req.ItemDescription,
		ChangedBy:       strings.TrimSpace(req.ChangedBy),
		Timestamp:       time.Now().UTC(),
		Details:         req.Details,
	}
	if entry.ItemID == "" {
		entry.ItemID = models.AuditSystemPartition
	}
	entry.Partition = entry.ItemID
	s.effects.Audit(ctx, entry)
	if entry.ChangedBy == "" {
		entry.ChangedBy = RequestMetaFrom(ctx).Actor
	}
	return &entry, nil
}

func (s *AuditService) find(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, error) {
	entries, err := s.reader.Find(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit entries")
	}
	return entries, nil
}

func parseOptionalTime(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" must be an RFC 3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

type approvalStore interface {
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	TransitionStatus(ctx context.Context, id int64, from, to models.ItemStatus, at time.Time) (*models.Item, error)
	CountByStatus(ctx context.Context) (models.ItemStatusCounts, error)
}

// ApprovalService moves items out of Pending. The status update is a single
// conditional write; audit, notification and telemetry follow it and can
// never undo it.
type ApprovalService struct {
	repo    approvalStore
	effects *SideEffects
	now     func() time.Time
	logger  *zap.Logger
}

// NewApprovalService constructs the approval service.
func NewApprovalService(repo approvalStore, effects *SideEffects, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if effects == nil {
		effects = NewSideEffects(nil, nil, nil, "", logger)
	}
	return &ApprovalService{
		repo:    repo,
		effects: effects,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// Approve moves a Pending item to Approved.
func (s *ApprovalService) Approve(ctx context.Context, id int64, actor string) (*models.Item, error) {
	return s.RequestTransition(withActor(ctx, actor), id, models.ItemStatusApproved)
}

// Reject moves a Pending item to Rejected.
func (s *ApprovalService) Reject(ctx context.Context, id int64, actor string) (*models.Item, error) {
	return s.RequestTransition(withActor(ctx, actor), id, models.ItemStatusRejected)
}

// RequestTransition applies target to item id. Of two concurrent requests for
// the same Pending item exactly one succeeds; the other observes the new
// status and fails with an invalid transition.
func (s *ApprovalService) RequestTransition(ctx context.Context, id int64, target models.ItemStatus) (*models.Item, error) {
	action, ok := models.ActionFor(target)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot transition to %q", target))
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, ok := models.NextStatus(current.Status, action)
	if !ok {
		return nil, invalidTransition(current.Status, action)
	}

	item, err := s.repo.TransitionStatus(ctx, id, current.Status, next, s.now())
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race, or the item was deleted in between.
		latest, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, invalidTransition(latest.Status, action)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item status")
	}

	s.logger.Info("item status changed",
		zap.Int64("item_id", item.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(item.Status)),
		zap.String("actor", RequestMetaFrom(ctx).Actor),
	)

	s.effects.AuditItem(ctx, models.AuditActionFor(item.Status), item, map[string]interface{}{
		"previousStatus": string(current.Status),
		"newStatus":      string(item.Status),
	})
	subject := "Item Approved"
	event := EventItemApproved
	if item.Status == models.ItemStatusRejected {
		subject = "Item Rejected"
		event = EventItemRejected
	}
	s.effects.NotifyItem(ctx, subject, item)
	s.effects.Track(event)
	return item, nil
}

// Pending lists items awaiting review, newest first.
func (s *ApprovalService) Pending(ctx context.Context) ([]models.Item, error) {
	items, err := s.repo.List(ctx, models.ItemFilter{Status: models.ItemStatusPending})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending items")
	}
	return items, nil
}

// Stats tallies items per status.
func (s *ApprovalService) Stats(ctx context.Context) (models.ItemStatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return models.ItemStatusCounts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval stats")
	}
	return counts, nil
}

func (s *ApprovalService) load(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, itemNotFound(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

func invalidTransition(current models.ItemStatus, action models.ItemAction) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("item status is %s, cannot %s", current, action))
}

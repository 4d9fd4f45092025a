package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

type notificationLedger interface {
	ListRecent(ctx context.Context, limit int) ([]models.NotificationRecord, error)
	Stats(ctx context.Context) (models.NotificationStats, error)
}

// NotificationService publishes ad-hoc notifications and reads the ledger.
type NotificationService struct {
	effects   *SideEffects
	ledger    notificationLedger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the service. A nil ledger reports an
// empty history.
func NewNotificationService(effects *SideEffects, ledger notificationLedger, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if effects == nil {
		effects = NewSideEffects(nil, nil, nil, "", logger)
	}
	return &NotificationService{effects: effects, ledger: ledger, validator: validate, logger: logger}
}

// Send enqueues a message. The returned message carries the generated id;
// the dispatch outcome is visible through Recent.
func (s *NotificationService) Send(ctx context.Context, req dto.SendNotificationRequest) (*models.NotificationMessage, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	msg := models.NotificationMessage{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Body,
		Timestamp: time.Now().UTC(),
	}
	s.effects.Notify(ctx, msg)
	return &msg, nil
}

// Recent lists ledger rows newest first.
func (s *NotificationService) Recent(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	if s.ledger == nil {
		return []models.NotificationRecord{}, nil
	}
	records, err := s.ledger.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return records, nil
}

// Stats tallies ledger rows by status.
func (s *NotificationService) Stats(ctx context.Context) (models.NotificationStats, error) {
	if s.ledger == nil {
		return models.NotificationStats{}, nil
	}
	stats, err := s.ledger.Stats(ctx)
	if err != nil {
		return models.NotificationStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification stats")
	}
	return stats, nil
}

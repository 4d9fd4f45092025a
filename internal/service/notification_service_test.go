package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/dto"
	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

type stubLedger struct {
	records []models.NotificationRecord
	stats   models.NotificationStats
}

func (s *stubLedger) ListRecent(context.Context, int) ([]models.NotificationRecord, error) {
	return s.records, nil
}

func (s *stubLedger) Stats(context.Context) (models.NotificationStats, error) {
	return s.stats, nil
}

func TestNotificationSend(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	effects := NewSideEffects(nil, dispatcher, nil, "fallback@example.com", zap.NewNop())
	svc := NewNotificationService(effects, nil, nil, zap.NewNop())

	msg, err := svc.Send(context.Background(), dto.SendNotificationRequest{Email: " ops@example.com ", Subject: "Hello", Body: "World"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	require.Equal(t, 1, dispatcher.count())
	assert.Equal(t, "ops@example.com", dispatcher.messages[0].Email)
	assert.Equal(t, msg.ID, dispatcher.messages[0].ID)
}

func TestNotificationSendValidation(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc := NewNotificationService(NewSideEffects(nil, dispatcher, nil, "", nil), nil, nil, nil)

	_, err := svc.Send(context.Background(), dto.SendNotificationRequest{Email: "not-an-email", Subject: "x", Body: "y"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "email must be a valid email address", appErrors.FromError(err).Message)
	assert.Zero(t, dispatcher.count())
}

func TestNotificationLedgerReads(t *testing.T) {
	ledger := &stubLedger{
		records: []models.NotificationRecord{{ID: "n-1", Status: models.NotificationStatusSent}},
		stats:   models.NotificationStats{Queued: 1, Sent: 4},
	}
	svc := NewNotificationService(nil, ledger, nil, nil)

	records, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Sent)

	empty := NewNotificationService(nil, nil, nil, nil)
	records, err = empty.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

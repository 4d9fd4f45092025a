package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

func newApprovalFixture() (*ApprovalService, *memoryItemStore, *recordingSink, *recordingDispatcher) {
	store := newMemoryItemStore()
	sink := &recordingSink{}
	dispatcher := &recordingDispatcher{}
	effects := NewSideEffects(sink, dispatcher, NewMetricsService(), "reviewers@example.com", zap.NewNop())
	return NewApprovalService(store, effects, zap.NewNop()), store, sink, dispatcher
}

func TestApprovalApproveThenRejectFails(t *testing.T) {
	svc, store, sink, dispatcher := newApprovalFixture()
	item := store.seed("Widget", models.ItemStatusPending)

	approved, err := svc.Approve(context.Background(), item.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusApproved, approved.Status)
	require.NotNil(t, approved.UpdatedAt)

	_, err = svc.Reject(context.Background(), item.ID, "bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "item status is Approved, cannot reject")

	entries := sink.byAction(models.AuditActionApproved)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].ChangedBy)
	assert.Equal(t, "Pending", entries[0].Details["previousStatus"])
	assert.Equal(t, 1, dispatcher.count())
	assert.Equal(t, "reviewers@example.com", dispatcher.messages[0].Email)
}

func TestApprovalConcurrentTransitionsHaveOneWinner(t *testing.T) {
	svc, store, sink, _ := newApprovalFixture()
	item := store.seed("Widget", models.ItemStatusPending)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		invalid   int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			var err error
			if i%2 == 0 {
				_, err = svc.Approve(context.Background(), item.ID, "")
			} else {
				_, err = svc.Reject(context.Background(), item.ID, "")
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, appErrors.ErrInvalidTransition):
				invalid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, invalid)
	assert.Len(t, sink.entries, 1)

	final, err := store.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.Terminal())
}

func TestApprovalTerminalStatesAreFinal(t *testing.T) {
	for _, status := range []models.ItemStatus{models.ItemStatusApproved, models.ItemStatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			svc, store, sink, dispatcher := newApprovalFixture()
			item := store.seed("Gadget", status)
			before, _ := store.GetByID(context.Background(), item.ID)

			_, err := svc.Approve(context.Background(), item.ID, "")
			assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
			_, err = svc.Reject(context.Background(), item.ID, "")
			assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

			after, _ := store.GetByID(context.Background(), item.ID)
			assert.Equal(t, before, after)
			assert.Empty(t, sink.entries)
			assert.Zero(t, dispatcher.count())
		})
	}
}

func TestApprovalMissingItem(t *testing.T) {
	svc, _, _, _ := newApprovalFixture()
	_, err := svc.Approve(context.Background(), 404, "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApprovalRejectsNonTerminalTarget(t *testing.T) {
	svc, store, _, _ := newApprovalFixture()
	item := store.seed("Widget", models.ItemStatusPending)
	_, err := svc.RequestTransition(context.Background(), item.ID, models.ItemStatusPending)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestApprovalSurvivesFailingSideEffects(t *testing.T) {
	store := newMemoryItemStore()
	effects := NewSideEffects(panickingSink{}, panickingDispatcher{}, NewMetricsService(), "", zap.NewNop())
	svc := NewApprovalService(store, effects, zap.NewNop())
	item := store.seed("Widget", models.ItemStatusPending)

	approved, err := svc.Approve(context.Background(), item.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusApproved, approved.Status)

	stored, _ := store.GetByID(context.Background(), item.ID)
	assert.Equal(t, models.ItemStatusApproved, stored.Status)
}

// racingStore lets another reviewer win between the read and the write.
type racingStore struct {
	*memoryItemStore
	winner models.ItemStatus
}

func (r *racingStore) TransitionStatus(ctx context.Context, id int64, from, to models.ItemStatus, at time.Time) (*models.Item, error) {
	if _, err := r.memoryItemStore.TransitionStatus(ctx, id, from, r.winner, at); err != nil {
		return nil, err
	}
	return r.memoryItemStore.TransitionStatus(ctx, id, from, to, at)
}

func TestApprovalLostRaceReportsWinningStatus(t *testing.T) {
	store := &racingStore{memoryItemStore: newMemoryItemStore(), winner: models.ItemStatusRejected}
	svc := NewApprovalService(store, nil, zap.NewNop())
	item := store.seed("Widget", models.ItemStatusPending)

	_, err := svc.Approve(context.Background(), item.ID, "")
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "item status is Rejected, cannot approve")
}

type brokenStore struct{ *memoryItemStore }

func (brokenStore) TransitionStatus(context.Context, int64, models.ItemStatus, models.ItemStatus, time.Time) (*models.Item, error) {
	return nil, errors.New("connection reset")
}

func TestApprovalStoreFailureIsInternal(t *testing.T) {
	store := brokenStore{newMemoryItemStore()}
	svc := NewApprovalService(store, nil, zap.NewNop())
	item := store.seed("Widget", models.ItemStatusPending)

	_, err := svc.Approve(context.Background(), item.ID, "")
	require.ErrorIs(t, err, appErrors.ErrInternal)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}

func TestApprovalPendingAndStats(t *testing.T) {
	svc, store, _, _ := newApprovalFixture()
	store.seed("a", models.ItemStatusPending)
	store.seed("b", models.ItemStatusPending)
	store.seed("c", models.ItemStatusApproved)
	store.seed("d", models.ItemStatusRejected)

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusCounts{Pending: 2, Approved: 1, Rejected: 1}, stats)
}

package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 4})
	q.Start(context.Background())

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job"}))
	}
	q.Stop()

	assert.Equal(t, int32(3), processed.Load())
}

func TestQueueRetriesThenDeadLetters(t *testing.T) {
	var attempts atomic.Int32
	var mu sync.Mutex
	var dead []Job
	done := make(chan struct{})

	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("store down")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		DeadLetter: func(job Job, err error) {
			mu.Lock()
			dead = append(dead, job)
			mu.Unlock()
			close(done)
		},
	})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "a"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dead-lettered")
	}
	q.Stop()

	assert.Equal(t, int32(3), attempts.Load())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, dead, 1)
	assert.Equal(t, 3, dead[0].Attempt)
}

func TestQueueRecoversHandlerPanic(t *testing.T) {
	done := make(chan struct{})
	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		panic("boom")
	}, QueueConfig{DeadLetter: func(Job, error) { close(done) }})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "p"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not converted into a failure")
	}
	q.Stop()
}

func TestTryEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(Job{ID: "1"}))
	// the worker may or may not have picked up the first job yet
	var full bool
	for i := 0; i < 3; i++ {
		if err := q.TryEnqueue(Job{ID: "n"}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	assert.True(t, full)

	close(block)
	q.Stop()
}

func TestEnqueueRejectedWhenNotStarted(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.TryEnqueue(Job{})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestSafelyConvertsPanic(t *testing.T) {
	err := Safely(func() error { panic("x") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.NoError(t, Safely(func() error { return nil }))
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, j Job) error {
		done <- j
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "mail"}))

	select {
	case j := <-done:
		assert.Equal(t, "mail", j.Type)
		assert.NotEmpty(t, j.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueZeroRetriesCallsExhaustedOnce(t *testing.T) {
	var calls int32
	exhausted := make(chan error, 1)
	q := NewQueue("test", func(ctx context.Context, j Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("smtp down")
	}, QueueConfig{
		Workers:     1,
		MaxRetries:  0,
		OnExhausted: func(j Job, err error) { exhausted <- err },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "mail"}))

	select {
	case err := <-exhausted:
		assert.EqualError(t, err, "smtp down")
	case <-time.After(2 * time.Second):
		t.Fatal("exhausted hook not called")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueRetriesBeforeExhausting(t *testing.T) {
	var calls int32
	exhausted := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, j Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("fail")
	}, QueueConfig{
		Workers:     1,
		MaxRetries:  2,
		RetryDelay:  5 * time.Millisecond,
		OnExhausted: func(Job, error) { exhausted <- struct{}{} },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "mail"}))

	select {
	case <-exhausted:
	case <-time.After(2 * time.Second):
		t.Fatal("exhausted hook not called")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
}

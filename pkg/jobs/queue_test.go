package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed sync.Map
	done := make(chan struct{}, 2)
	handler := func(ctx context.Context, job Job) error {
		processed.Store(job.ID, job.Payload)
		done <- struct{}{}
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a", Type: "test", Payload: "eerste"}))
	require.NoError(t, q.Enqueue(Job{ID: "b", Type: "test", Payload: "tweede"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not processed in time")
		}
	}
	payload, ok := processed.Load("a")
	require.True(t, ok)
	assert.Equal(t, "eerste", payload)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestQueueDropsWhenFullAndNotifiesObserver(t *testing.T) {
	var accepted, dropped atomic.Int64
	block := make(chan struct{})
	handler := func(ctx context.Context, job Job) error {
		<-block
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{
		Workers:    1,
		BufferSize: 1,
		Observer: func(ok bool) {
			if ok {
				accepted.Add(1)
			} else {
				dropped.Add(1)
			}
		},
	})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	// First job occupies the worker, second fills the buffer; keep
	// enqueueing until the full buffer forces a drop.
	deadline := time.After(2 * time.Second)
	for dropped.Load() == 0 {
		require.NoError(t, q.Enqueue(Job{ID: "x"}))
		select {
		case <-deadline:
			t.Fatal("queue never reported a dropped job")
		default:
		}
	}
	assert.Positive(t, accepted.Load())
	assert.Positive(t, dropped.Load())
}

func TestQueueStartAndStopAreIdempotent(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Workers: 3})
	q.Start(context.Background())
	q.Start(context.Background())
	q.Stop()
	q.Stop()
}

func TestQueueHandlerErrorDoesNotKillWorker(t *testing.T) {
	calls := make(chan string, 2)
	handler := func(ctx context.Context, job Job) error {
		calls <- job.ID
		if job.ID == "faal" {
			return assert.AnError
		}
		return nil
	}

	q := NewQueue("test", handler, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "faal"}))
	require.NoError(t, q.Enqueue(Job{ID: "ok"}))

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("worker stopped processing after a handler error")
		}
	}
}

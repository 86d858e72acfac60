package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed atomic.Int32
	done := make(chan struct{}, 2)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		processed.Add(1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "one"}))
	require.NoError(t, q.Enqueue(Job{Type: "two"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed in time")
		}
	}
	assert.Equal(t, int32(2), processed.Load())
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{Type: "early"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestQueueFullRejectsJob(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	// First job occupies the worker, second fills the buffer.
	require.NoError(t, q.Enqueue(Job{Type: "busy"}))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, q.Enqueue(Job{Type: "buffered"}))

	err := q.Enqueue(Job{Type: "overflow"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

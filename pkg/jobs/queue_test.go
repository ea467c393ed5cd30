package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobCollector struct {
	mu   sync.Mutex
	seen []Job
	fail int
}

func (c *jobCollector) handle(ctx context.Context, job Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, job)
	if c.fail > 0 {
		c.fail--
		return errors.New("transient")
	}
	return nil
}

func (c *jobCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestQueueProcessesJobs(t *testing.T) {
	collector := &jobCollector{}
	queue := NewQueue("test", collector.handle, QueueConfig{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, queue.Enqueue(Job{ID: "j", Type: "t"}))
	}
	require.Eventually(t, func() bool { return collector.count() == 5 }, 2*time.Second, 10*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	collector := &jobCollector{fail: 2}
	queue := NewQueue("test", collector.handle, QueueConfig{RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "j1"}))
	require.Eventually(t, func() bool { return collector.count() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	collector := &jobCollector{fail: 10}
	queue := NewQueue("test", collector.handle, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "j1"}))
	// First attempt plus two retries.
	require.Eventually(t, func() bool { return collector.count() == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, collector.count())
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})

	err := queue.Enqueue(Job{ID: "j1"})
	assert.Error(t, err)
}

func TestQueueEnqueueWhenFull(t *testing.T) {
	release := make(chan struct{})
	queue := NewQueue("test", func(ctx context.Context, _ Job) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()
	defer close(release)

	// One job occupies the worker, one fills the buffer; a third must be
	// rejected rather than block the caller.
	require.NoError(t, queue.Enqueue(Job{ID: "j1"}))
	require.Eventually(t, func() bool {
		return queue.Enqueue(Job{ID: "j2"}) == nil
	}, time.Second, 5*time.Millisecond)

	err := queue.Enqueue(Job{ID: "j3"})
	assert.Error(t, err)
}

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

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	done := make(chan Job, 1)
	q.Register("review.submitted", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue("review.submitted", 42)
	require.NoError(t, err)

	select {
	case job := <-done:
		assert.Equal(t, id, job.ID)
		assert.Equal(t, 42, job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := NewQueue("test", QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls int32
	succeeded := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("smtp down")
		}
		close(succeeded)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue("flaky", nil)
	require.NoError(t, err)

	select {
	case <-succeeded:
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueRejectsUnknownTypeAndStoppedQueue(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	_, err := q.Enqueue("anything", nil)
	assert.Error(t, err)

	q.Start(context.Background())
	_, err = q.Enqueue("unknown", nil)
	assert.Error(t, err)
	q.Stop()
}

func TestQueueStopFinishesBufferedJobs(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1})
	release := make(chan struct{})
	var processed int32
	q.Register("review.submitted", func(ctx context.Context, job Job) error {
		if job.Payload == 1 {
			<-release
		}
		atomic.AddInt32(&processed, 1)
		return nil
	})
	q.Start(context.Background())

	for i := 1; i <= 3; i++ {
		_, err := q.Enqueue("review.submitted", i)
		require.NoError(t, err)
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	close(release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not stop")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&processed))

	_, err := q.Enqueue("review.submitted", 4)
	assert.Error(t, err)
}

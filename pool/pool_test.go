package pool_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/pool"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestPool_RunsAllSubmittedItems(t *testing.T) {
	p := pool.New(4, nil)
	p.Start()
	defer p.Close()

	var n atomic.Int64
	for i := 0; i < 1000; i++ {
		require.True(t, p.Submit(func() { n.Add(1) }))
	}

	p.WaitIdle()
	assert.Equal(t, int64(1000), n.Load())
}

func TestPool_IdleCallbackFiresExactlyOnce(t *testing.T) {
	var idleCount atomic.Int64
	p := pool.New(8, func() { idleCount.Add(1) })
	defer p.Close()

	// Everything is queued before the workers start, so the active count
	// reaches zero exactly once.
	for i := 0; i < 1000; i++ {
		p.Submit(func() {})
	}
	p.Start()

	p.WaitIdle()
	waitFor(t, time.Second, func() bool { return idleCount.Load() >= 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), idleCount.Load())
}

func TestPool_IdleCallbackFiresAgainAfterNewWork(t *testing.T) {
	var idleCount atomic.Int64
	p := pool.New(2, func() { idleCount.Add(1) })
	p.Start()
	defer p.Close()

	p.Submit(func() {})
	p.WaitIdle()
	waitFor(t, time.Second, func() bool { return idleCount.Load() == 1 })

	p.Submit(func() {})
	p.WaitIdle()
	waitFor(t, time.Second, func() bool { return idleCount.Load() == 2 })
}

func TestPool_ClearPendingDropsQueuedWorkUnderLoad(t *testing.T) {
	p := pool.New(1, nil)
	p.Start()
	defer p.Close()

	started := make(chan struct{})
	block := make(chan struct{})
	var ran atomic.Int64

	p.Submit(func() {
		close(started)
		<-block
		ran.Add(1)
	})
	<-started

	for i := 0; i < 9999; i++ {
		p.Submit(func() { ran.Add(1) })
	}

	p.ClearPending()
	close(block)
	p.WaitIdle()

	assert.Less(t, ran.Load(), int64(10000))
	assert.Greater(t, ran.Load(), int64(0))
}

func TestPool_SubmitRejectsNilWorkItem(t *testing.T) {
	p := pool.New(1, nil)
	p.Start()
	defer p.Close()

	assert.False(t, p.Submit(nil))
}

func TestPool_SubmitAfterCloseIsRejected(t *testing.T) {
	p := pool.New(1, nil)
	p.Start()
	p.Close()

	assert.False(t, p.Submit(func() {}))
}

func TestPool_ObservationalMethodsReflectQueueState(t *testing.T) {
	p := pool.New(1, nil)
	p.Start()
	defer p.Close()

	started := make(chan struct{})
	block := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-block
	})
	<-started

	p.Submit(func() {})
	p.Submit(func() {})

	assert.False(t, p.Empty())
	assert.Equal(t, 2, p.PendingCount())
	assert.Equal(t, 3, p.ActiveCount())
	assert.False(t, p.IsIdle())
	assert.Len(t, p.SnapshotPending(), 2)

	close(block)
	p.WaitIdle()
	assert.True(t, p.Empty())
	assert.True(t, p.IsIdle())
}

func TestPool_StartIsIdempotent(t *testing.T) {
	p := pool.New(3, nil)
	p.Start()
	p.Start()
	p.Start()
	defer p.Close()

	assert.Equal(t, 3, p.WorkerCount())

	var n atomic.Int64
	for i := 0; i < 50; i++ {
		p.Submit(func() { n.Add(1) })
	}
	p.WaitIdle()
	assert.Equal(t, int64(50), n.Load())
}

func TestPool_FIFOOrderWithSingleWorker(t *testing.T) {
	p := pool.New(1, nil)
	p.Start()
	defer p.Close()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		i := i
		p.Submit(func() {
			order = append(order, i)
			if i == 19 {
				close(done)
			}
		})
	}
	<-done

	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

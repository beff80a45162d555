package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	results map[uuid.UUID]Result
}

func newCollector() *collector {
	return &collector{results: make(map[uuid.UUID]Result)}
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r.ID()] = r
}

func (c *collector) get(id uuid.UUID) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[id]
	return r, ok
}

func TestNew_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		p, err := New("bad", size)
		assert.ErrorIs(t, err, ErrInvalidSize)
		assert.Nil(t, p)
	}
}

func TestPool_RunsAllJobs(t *testing.T) {
	t.Parallel()

	p, err := New("test", 8)
	require.NoError(t, err)

	var n atomic.Int32
	for range 2000 {
		_, err := p.Execute(func() { n.Add(1) })
		require.NoError(t, err)
	}

	p.Close()
	assert.Equal(t, int32(2000), n.Load(), "Close must drain queued jobs")
}

func TestPool_SingleWorkerKeepsOrder(t *testing.T) {
	t.Parallel()

	p, err := New("ordered", 1)
	require.NoError(t, err)

	var got []int
	for i := range 100 {
		_, err := p.Execute(func() { got = append(got, i) })
		require.NoError(t, err)
	}
	p.Close()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestPool_ExecuteAfterClose(t *testing.T) {
	t.Parallel()

	p, err := New("closed", 2)
	require.NoError(t, err)
	p.Close()
	p.Close()

	id, err := p.Execute(func() {})
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.Equal(t, uuid.Nil, id)

	_, err = p.Execute(nil)
	assert.ErrorIs(t, err, ErrNilJob)
}

func TestPool_PanicIsReportedAndWorkerSurvives(t *testing.T) {
	t.Parallel()

	results := newCollector()
	p, err := New("panics", 1, WithResultHandler(results.add))
	require.NoError(t, err)

	bad, err := p.Execute(func() { panic("test") })
	require.NoError(t, err)

	ran := make(chan struct{})
	good, err := p.Execute(func() { close(ran) })
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
	p.Close()

	r, ok := results.get(bad)
	require.True(t, ok)
	assert.True(t, r.IsFailure())
	assert.ErrorContains(t, r.Err(), "test")

	r, ok = results.get(good)
	require.True(t, ok)
	assert.True(t, r.IsSuccess())
	assert.Equal(t, 0, r.Worker())
}

func TestPool_ErrorAndCancelOutcomes(t *testing.T) {
	t.Parallel()

	results := newCollector()
	p, err := New("outcomes", 2, WithResultHandler(results.add))
	require.NoError(t, err)

	boom := errors.New("boom")
	failed, err := p.ExecuteContext(context.Background(), func(context.Context) error { return boom })
	require.NoError(t, err)

	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	called := atomic.Bool{}
	skipped, err := p.ExecuteContext(ctx, func(context.Context) error {
		called.Store(true)
		return nil
	})
	require.NoError(t, err)

	p.Close()

	r, ok := results.get(failed)
	require.True(t, ok)
	assert.True(t, r.IsFailure())
	assert.ErrorIs(t, r.Err(), boom)

	r, ok = results.get(skipped)
	require.True(t, ok)
	assert.True(t, r.IsCancel())
	assert.ErrorIs(t, r.Err(), context.Canceled)
	assert.False(t, called.Load())
}

func TestPool_CloseNowCancelsQueuedJobs(t *testing.T) {
	t.Parallel()

	results := newCollector()
	p, err := New("abort", 1, WithResultHandler(results.add))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	running, err := p.Execute(func() {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	var queued []uuid.UUID
	for range 5 {
		id, err := p.Execute(func() { t.Error("queued job must not run") })
		require.NoError(t, err)
		queued = append(queued, id)
	}

	done := make(chan struct{})
	go func() {
		p.CloseNow()
		close(done)
	}()

	require.Eventually(t, func() bool { return p.abort.Load() }, time.Second, time.Millisecond)
	close(release)
	<-done

	r, ok := results.get(running)
	require.True(t, ok)
	assert.True(t, r.IsSuccess())

	for _, id := range queued {
		r, ok := results.get(id)
		require.True(t, ok)
		assert.True(t, r.IsCancel())
		assert.ErrorIs(t, r.Err(), ErrCancelled)
	}
}

func TestPool_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p, err := New("metrics", 2, WithRegisterer(reg))
	require.NoError(t, err)

	for range 3 {
		_, err := p.Execute(func() {})
		require.NoError(t, err)
	}
	_, err = p.ExecuteContext(context.Background(), func(context.Context) error { return errors.New("x") })
	require.NoError(t, err)
	p.Close()

	assert.Equal(t, 4.0, testutil.ToFloat64(p.metrics.submitted))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.metrics.completed.WithLabelValues(outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.completed.WithLabelValues(outcomeFailure)))
	assert.Zero(t, testutil.ToFloat64(p.metrics.busy))

	_, err = New("metrics", 1, WithRegisterer(reg))
	assert.Error(t, err, "registering the same pool name twice must fail")
}

func TestIsCancellationError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCancellationError(context.Canceled))
	assert.True(t, IsCancellationError(context.DeadlineExceeded))
	assert.True(t, IsCancellationError(ErrCancelled))
	assert.False(t, IsCancellationError(errors.New("other")))
	assert.False(t, IsCancellationError(nil))
}

func TestPool_CloseStartedFromJob(t *testing.T) {
	t.Parallel()

	p, err := New("self-close", 2)
	require.NoError(t, err)

	closed := make(chan struct{})
	_, err = p.Execute(func() {
		go func() {
			p.Close()
			close(closed)
		}()
	})
	require.NoError(t, err)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close started from a job did not complete")
	}

	_, err = p.Execute(func() {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

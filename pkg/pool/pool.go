package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/ib-77/mpsc/pkg/mpsc"
)

type task struct {
	id        uuid.UUID
	ctx       context.Context
	f         func(ctx context.Context) error
	createdAt time.Time
}

type Pool struct {
	name string
	size int

	// mu guards closed and the sender against a concurrent Close.
	mu     sync.RWMutex
	closed bool
	sender *mpsc.Sender[*task]

	// workers take turns on the single receiver.
	recvMu   sync.Mutex
	receiver *mpsc.Receiver[*task]

	abort     atomic.Bool
	closeOnce sync.Once
	wg        conc.WaitGroup

	logger   Logger
	onResult func(Result)
	metrics  *metrics
}

// New starts a pool of size workers.
func New(name string, size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m, err := newMetrics(name, o.registerer)
	if err != nil {
		return nil, err
	}

	sender, receiver := mpsc.New[*task]()
	p := &Pool{
		name:     name,
		size:     size,
		sender:   sender,
		receiver: receiver,
		logger:   o.logger,
		onResult: o.onResult,
		metrics:  m,
	}

	for id := range size {
		p.wg.Go(func() { p.work(id) })
	}

	p.logger.Info("pool started", "pool", name, "workers", size)
	return p, nil
}

func (p *Pool) Name() string {
	return p.name
}

func (p *Pool) Size() int {
	return p.size
}

// Execute queues f and returns its job id.
func (p *Pool) Execute(f func()) (uuid.UUID, error) {
	if f == nil {
		return uuid.Nil, ErrNilJob
	}

	return p.ExecuteContext(context.Background(), func(context.Context) error {
		f()
		return nil
	})
}

// ExecuteContext queues f. If ctx is done before a worker picks the job up,
// f is not run and the job is reported as cancelled.
func (p *Pool) ExecuteContext(ctx context.Context, f func(ctx context.Context) error) (uuid.UUID, error) {
	if f == nil {
		return uuid.Nil, ErrNilJob
	}

	t := &task{
		id:        uuid.New(),
		ctx:       ctx,
		f:         f,
		createdAt: time.Now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return uuid.Nil, ErrPoolClosed
	}

	p.sender.Send(t)
	p.metrics.submitted.Inc()
	return t.id, nil
}

// Close stops accepting jobs, waits until every queued job has run and all
// workers have exited.
//
// Close waits for the workers, so calling it (or CloseNow) from inside a
// job or a result handler deadlocks. Close from another goroutine instead.
func (p *Pool) Close() {
	p.shutdown()
	p.wg.Wait()
}

// CloseNow stops accepting jobs and reports queued jobs that have not
// started yet as cancelled with ErrCancelled. Running jobs finish normally.
func (p *Pool) CloseNow() {
	p.abort.Store(true)
	p.Close()
}

func (p *Pool) shutdown() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.sender.Close()
		p.mu.Unlock()

		p.logger.Info("pool closing", "pool", p.name)
	})
}

func (p *Pool) next() (*task, bool) {
	p.recvMu.Lock()
	defer p.recvMu.Unlock()
	return p.receiver.Receive()
}

func (p *Pool) work(id int) {
	p.logger.Debug("worker started", "pool", p.name, "worker", id)

	for {
		t, ok := p.next()
		if !ok {
			p.logger.Debug("worker stopped", "pool", p.name, "worker", id)
			return
		}

		p.report(p.run(id, t))
	}
}

func (p *Pool) run(worker int, t *task) Result {
	if p.abort.Load() {
		return cancel(t, worker, ErrCancelled)
	}
	if err := t.ctx.Err(); err != nil {
		return cancel(t, worker, err)
	}

	p.metrics.busy.Inc()
	defer p.metrics.busy.Dec()

	start := time.Now()
	var err error
	if rec := panics.Try(func() { err = t.f(t.ctx) }); rec != nil {
		p.logger.Error("job panicked", "pool", p.name, "worker", worker, "job", t.id.String(),
			"panic", rec.String())
		return fail(t, worker, time.Since(start), rec.AsError())
	}

	d := time.Since(start)
	switch {
	case err == nil:
		return success(t, worker, d)
	case IsCancellationError(err):
		return cancel(t, worker, err)
	default:
		p.logger.Debug("job failed", "pool", p.name, "worker", worker, "job", t.id.String(),
			"error", err.Error())
		return fail(t, worker, d, err)
	}
}

func (p *Pool) report(r Result) {
	p.metrics.completed.WithLabelValues(r.outcome()).Inc()

	if p.onResult != nil {
		p.onResult(r)
	}
}

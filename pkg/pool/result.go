package pool

import (
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one job.
type Result struct {
	id        uuid.UUID
	createdAt time.Time
	duration  time.Duration
	worker    int
	err       error
	isSuccess bool
	isCancel  bool
}

func success(t *task, worker int, d time.Duration) Result {
	return Result{
		id:        t.id,
		createdAt: t.createdAt,
		duration:  d,
		worker:    worker,
		isSuccess: true,
	}
}

func fail(t *task, worker int, d time.Duration, err error) Result {
	return Result{
		id:        t.id,
		createdAt: t.createdAt,
		duration:  d,
		worker:    worker,
		err:       err,
	}
}

func cancel(t *task, worker int, err error) Result {
	return Result{
		id:        t.id,
		createdAt: t.createdAt,
		worker:    worker,
		err:       err,
		isCancel:  true,
	}
}

// ID returns the id handed out when the job was submitted.
func (r Result) ID() uuid.UUID {
	return r.id
}

// CreatedAt is the submission time (UTC).
func (r Result) CreatedAt() time.Time {
	return r.createdAt
}

// Duration is how long the job ran. Zero for cancelled jobs.
func (r Result) Duration() time.Duration {
	return r.duration
}

// Worker is the index of the worker that handled the job.
func (r Result) Worker() int {
	return r.worker
}

func (r Result) Err() error {
	return r.err
}

func (r Result) IsSuccess() bool {
	return r.isSuccess
}

func (r Result) IsCancel() bool {
	return r.isCancel
}

// IsFailure reports a job that ran and returned an error or panicked.
func (r Result) IsFailure() bool {
	return !r.isSuccess && !r.isCancel
}

func (r Result) outcome() string {
	switch {
	case r.isSuccess:
		return outcomeSuccess
	case r.isCancel:
		return outcomeCancel
	default:
		return outcomeFailure
	}
}

package mpsc

import (
	"iter"
	"runtime"
)

// Receiver is the single consumer of a channel. It is not safe for
// concurrent use; wrap it in a mutex to share it between goroutines.
type Receiver[T any] struct {
	shared   *shared[T]
	buffer   queue[T]
	released bool
	cleanup  runtime.Cleanup
}

// Receive returns the next value, blocking while the channel is empty and a
// sender is still alive. ok is false once every sender is closed and no
// value remains.
func (r *Receiver[T]) Receive() (v T, ok bool) {
	if r.released {
		panic(ErrReceiverClosed)
	}

	if v, ok = r.buffer.pop(); ok {
		return v, true
	}

	sh := r.shared
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for {
		if v, ok = sh.queue.pop(); ok {
			if sh.queue.len() > 0 {
				// take the rest of the burst in one exchange; buffer is empty here
				sh.queue, r.buffer = r.buffer, sh.queue
			}
			return v, true
		}

		if sh.senders == 0 {
			var zero T
			return zero, false
		}

		// Wakeups carry no meaning of their own; the loop re-checks state.
		sh.available.Wait()
	}
}

// All returns an iterator over received values that stops at end-of-stream.
func (r *Receiver[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := r.Receive()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Close releases the receiver. Queued and future values are discarded;
// senders are not notified and keep succeeding. Close is idempotent.
func (r *Receiver[T]) Close() {
	if r.released {
		return
	}
	r.released = true

	r.cleanup.Stop()
	r.buffer.reset()
	r.shared.abandon()
}

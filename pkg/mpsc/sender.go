package mpsc

import (
	"runtime"
	"sync/atomic"
)

// Sender enqueues values into a channel. A Sender is safe for concurrent
// use; Clone it to hand an independently closable handle to another
// producer.
type Sender[T any] struct {
	shared   *shared[T]
	released atomic.Bool
	cleanup  runtime.Cleanup
}

// Clone returns a new sender on the same channel. The producer count is
// incremented before the new handle is returned.
func (s *Sender[T]) Clone() *Sender[T] {
	sh := s.shared
	sh.mu.Lock()
	// checked under the lock so a racing Close on s cannot release it first
	if s.released.Load() {
		sh.mu.Unlock()
		panic(ErrSenderClosed)
	}
	sh.senders++
	sh.mu.Unlock()

	c := newSender(sh)
	runtime.KeepAlive(s)
	return c
}

// Send appends v to the channel and wakes the receiver. It never blocks on
// the receiver. If the receiver has been closed v is discarded.
//
// A Close racing with Send on the same handle either lets v in before the
// producer count drops or makes Send panic; v never arrives after
// end-of-stream.
func (s *Sender[T]) Send(v T) {
	sh := s.shared
	sh.mu.Lock()
	if s.released.Load() {
		sh.mu.Unlock()
		panic(ErrSenderClosed)
	}
	if !sh.receiverGone {
		sh.queue.push(v)
	}
	sh.mu.Unlock()
	sh.available.Signal()

	// s must not be collected, and so released, before v is queued.
	runtime.KeepAlive(s)
}

// Close releases this sender. When the last sender is closed the receiver
// observes end-of-stream after draining the queue. Close is idempotent.
func (s *Sender[T]) Close() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}

	s.cleanup.Stop()
	s.shared.release()
}

// Senders reports how many senders are currently alive on this channel.
func (s *Sender[T]) Senders() int {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	return s.shared.senders
}

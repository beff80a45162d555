package mpsc

import (
	"errors"
	"runtime"
	"sync"
)

var (
	// ErrSenderClosed is the panic value for using a sender after Close.
	ErrSenderClosed = errors.New("mpsc: use of closed sender")
	// ErrReceiverClosed is the panic value for using a receiver after Close.
	ErrReceiverClosed = errors.New("mpsc: use of closed receiver")
)

// shared is the channel core jointly referenced by every handle.
// queue, senders and receiverGone are guarded by mu.
type shared[T any] struct {
	mu           sync.Mutex
	available    sync.Cond
	queue        queue[T]
	senders      int
	receiverGone bool
}

// New creates a channel and returns its first sender and its only receiver.
func New[T any]() (*Sender[T], *Receiver[T]) {
	sh := &shared[T]{senders: 1}
	sh.available.L = &sh.mu

	return newSender(sh), newReceiver(sh)
}

// release unregisters a sender. The receiver is woken only after the count
// is updated and the lock is dropped, so a waiting receiver always observes
// the final count.
func (sh *shared[T]) release() {
	sh.mu.Lock()
	sh.senders--
	last := sh.senders == 0
	sh.mu.Unlock()

	if last {
		sh.available.Signal()
	}
}

// abandon marks the consumer side as gone and drops whatever is queued.
func (sh *shared[T]) abandon() {
	sh.mu.Lock()
	sh.receiverGone = true
	sh.queue.reset()
	sh.mu.Unlock()
}

func newSender[T any](sh *shared[T]) *Sender[T] {
	s := &Sender[T]{shared: sh}
	// A sender dropped without Close is released once it is collected.
	s.cleanup = runtime.AddCleanup(s, func(sh *shared[T]) { sh.release() }, sh)
	return s
}

func newReceiver[T any](sh *shared[T]) *Receiver[T] {
	r := &Receiver[T]{shared: sh}
	r.cleanup = runtime.AddCleanup(r, func(sh *shared[T]) { sh.abandon() }, sh)
	return r
}

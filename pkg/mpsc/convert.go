package mpsc

import "context"

// FromSlice returns a receiver that yields values in order and then
// reports end-of-stream.
func FromSlice[T any](values ...T) *Receiver[T] {
	s, r := New[T]()
	defer s.Close()

	for _, v := range values {
		s.Send(v)
	}
	return r
}

// Collect receives until end-of-stream and returns everything received.
func Collect[T any](r *Receiver[T]) []T {
	res := make([]T, 0)
	for v := range r.All() {
		res = append(res, v)
	}
	return res
}

// Pipe forwards values from r into a native channel so callers can select on
// it together with timers or ctx. The returned channel is closed on
// end-of-stream or when ctx is done. Pipe takes over r: the caller must not
// use it afterwards.
//
// A Receive already blocked when ctx is cancelled returns only on the next
// value or end-of-stream, so the forwarding goroutine may outlive ctx until
// then.
func Pipe[T any](ctx context.Context, r *Receiver[T]) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)

		for {
			if ctx.Err() != nil {
				return
			}

			v, ok := r.Receive()
			if !ok {
				return
			}

			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

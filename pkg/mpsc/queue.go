package mpsc

// queue is a FIFO backed by a slice and a read offset. Two queues can be
// exchanged by value, which is how the receiver takes over a whole burst of
// pending values in one step.
type queue[T any] struct {
	items []T
	head  int
}

func (q *queue[T]) len() int {
	return len(q.items) - q.head
}

func (q *queue[T]) push(v T) {
	if q.head > 0 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	q.items = append(q.items, v)
}

func (q *queue[T]) pop() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v, true
}

// reset drops every pending value and keeps the backing array.
func (q *queue[T]) reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

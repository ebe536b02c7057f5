package pager

import "context"

// Queue is a Loop backed by a buffered channel. The owner either receives
// from C and runs each function itself, or calls RunNext/Drain.
type Queue struct {
	ch chan func()
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan func(), size)}
}

// Post blocks while the queue is full.
func (q *Queue) Post(fn func()) {
	q.ch <- fn
}

func (q *Queue) C() <-chan func() {
	return q.ch
}

// RunNext waits for one posted function and runs it on the calling
// goroutine.
func (q *Queue) RunNext(ctx context.Context) error {
	select {
	case fn := <-q.ch:
		fn()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs whatever is already queued without waiting and reports how
// many functions ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.ch:
			fn()
			n++
		default:
			return n
		}
	}
}

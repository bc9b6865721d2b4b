package session

import (
	"context"
	"errors"
)

// ErrQueueFull is returned when a request can not be enqueued without blocking.
var ErrQueueFull = errors.New("session queue is full")

// Request is work that runs on the goroutine that owns the session.
type Request func(s *Session) error

type request struct {
	fn   Request
	done chan error
}

// Queue is a bounded request queue that collaborators running on other
// goroutines use to access a session. The owner drains it between its own
// operations.
type Queue struct {
	requests chan request
}

// NewQueue returns a queue that holds up to size pending requests.
func NewQueue(size int) *Queue {
	return &Queue{
		requests: make(chan request, size),
	}
}

// Submit enqueues the request and waits until the owner processed it.
func (q *Queue) Submit(ctx context.Context, fn Request) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case q.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues the request without blocking. The returned channel
// receives the result once the owner processed the request.
func (q *Queue) TrySubmit(fn Request) (<-chan error, error) {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case q.requests <- req:
		return req.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// Drain processes all pending requests and returns their number.
func (q *Queue) Drain(s *Session) int {
	for n := 0; ; n++ {
		select {
		case req := <-q.requests:
			req.done <- req.fn(s)
		default:
			return n
		}
	}
}

// Run processes requests until the context is canceled.
func (q *Queue) Run(ctx context.Context, s *Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-q.requests:
			req.done <- req.fn(s)
		}
	}
}

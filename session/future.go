package session

import (
	"context"
	"sync"

	"github.com/nbforge/kernelbridge/kernel"
)

// Future is a pending-or-resolved kernel session. It settles exactly once,
// either with a session or with an error; later settlements are ignored.
type Future struct {
	once sync.Once
	done chan struct{}
	sess kernel.Session
	err  error
}

// NewFuture creates an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve settles the future with a session.
func (f *Future) Resolve(sess kernel.Session) {
	f.once.Do(func() {
		f.sess = sess
		close(f.done)
	})
}

// Reject settles the future with an error.
func (f *Future) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or the context is cancelled.
func (f *Future) Await(ctx context.Context) (kernel.Session, error) {
	select {
	case <-f.done:
		return f.sess, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

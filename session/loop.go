package session

import (
	"context"

	"github.com/Southclaws/fault"
)

// Loop runs queued functions one at a time on a single goroutine. Every
// input source that touches a Session goes through the same Loop.
type Loop struct {
	q chan func()
}

func NewLoop(size int) *Loop {
	return &Loop{q: make(chan func(), size)}
}

// Do queues fn and waits until it has run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case l.q <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return fault.Wrap(ctx.Err())
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fault.Wrap(ctx.Err())
	}
}

// Run executes queued functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.q:
			fn()
		case <-ctx.Done():
			return fault.Wrap(ctx.Err())
		}
	}
}

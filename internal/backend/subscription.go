package backend

import (
	"context"
	"sync"
)

// Subscription is a live change feed. Cancel stops it and may be called any
// number of times; no callback runs once Cancel has returned.
type Subscription interface {
	Cancel()
}

// Feed is the Subscription returned by the adapters. The worker goroutine
// started by Go must return once its context is done.
type Feed struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Go runs work in its own goroutine under a context derived from parent.
func Go(parent context.Context, work func(ctx context.Context)) *Feed {
	ctx, cancel := context.WithCancel(parent)
	f := &Feed{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		work(ctx)
	}()
	return f
}

func (f *Feed) Cancel() {
	f.once.Do(func() {
		f.cancel()
		<-f.done
	})
}

// Done is closed when the worker has returned.
func (f *Feed) Done() <-chan struct{} { return f.done }

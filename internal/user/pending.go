package user

import (
	"context"
	"sync"
)

// Pending is the eventual outcome of a Save. It resolves exactly once.
type Pending struct {
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	resp      *Response
	err       error
	callbacks []func(*Response, error)
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(resp *Response, err error) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.resolved = true
	p.resp = resp
	p.err = err
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(resp, err)
	}
}

// Done is closed once the result is available
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Ready reports whether the result is available without blocking
func (p *Pending) Ready() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result is available or ctx ends. Cancelling ctx
// stops the wait only; the request keeps running. A result that is already
// available is returned even when ctx is done.
func (p *Pending) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.result()
	case <-ctx.Done():
		if p.Ready() {
			return p.result()
		}
		return nil, ctx.Err()
	}
}

func (p *Pending) result() (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resp, p.err
}

// Then registers fn to run with the result. If the result is already
// available fn runs immediately on the caller's goroutine, otherwise on the
// goroutine that resolves the request.
func (p *Pending) Then(fn func(*Response, error)) {
	p.mu.Lock()
	if !p.resolved {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	resp, err := p.resp, p.err
	p.mu.Unlock()
	fn(resp, err)
}

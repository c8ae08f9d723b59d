package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/deferhttp/transport"
)

// SpyPending is a pending exchange with a canned outcome that counts how
// often it is awaited and closed.
type SpyPending struct {
	resp *transport.Response
	err  error

	gate        chan struct{}
	releaseOnce sync.Once
	closed      chan struct{}
	closeOnce   sync.Once

	awaits atomic.Int32
	closes atomic.Int32
}

// NewSpyPending creates a spy that completes with resp and err.
func NewSpyPending(resp *transport.Response, err error) *SpyPending {
	return &SpyPending{resp: resp, err: err, closed: make(chan struct{})}
}

// Hold makes Await block until Release, Close or the caller's ctx ends.
// It must be called before the spy is used.
func (p *SpyPending) Hold() *SpyPending {
	p.gate = make(chan struct{})
	return p
}

// Release lets held Await calls complete.
func (p *SpyPending) Release() {
	if p.gate == nil {
		return
	}
	p.releaseOnce.Do(func() { close(p.gate) })
}

// Await returns the canned outcome. A held spy closed before Release
// reports a canceled exchange.
func (p *SpyPending) Await(ctx context.Context) (*transport.Response, error) {
	p.awaits.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-p.closed:
			return nil, transport.NewCanceledError(context.Canceled)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.resp, p.err
}

// Close records the call and unblocks held Await calls.
func (p *SpyPending) Close() error {
	p.closes.Add(1)
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// Awaits returns the number of Await calls.
func (p *SpyPending) Awaits() int {
	return int(p.awaits.Load())
}

// Closes returns the number of Close calls.
func (p *SpyPending) Closes() int {
	return int(p.closes.Load())
}

package transport

import (
	"context"
	"sync"
)

// Pending is an exchange in flight. It completes exactly once.
type Pending struct {
	done   chan struct{}
	resp   *Response
	err    error
	cancel context.CancelFunc

	closeOnce sync.Once
}

func newPending(cancel context.CancelFunc) *Pending {
	return &Pending{done: make(chan struct{}), cancel: cancel}
}

func (p *Pending) complete(resp *Response, err error) {
	p.resp, p.err = resp, err
	close(p.done)
}

// Await waits for the exchange to finish, or for ctx to end. It can be
// called any number of times and always reports the same outcome.
func (p *Pending) Await(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when the exchange finishes.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Close cancels an unfinished exchange without waiting for it, and releases
// the response of a finished one.
func (p *Pending) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.cancel()
		select {
		case <-p.done:
			if p.resp != nil {
				err = p.resp.Close()
			}
		default:
		}
	})
	return err
}

package browserpool

import (
	"context"
	"fmt"
	"time"

	"github.com/finalyze/core/engine/core"
)

// Pool is a fixed-size set of N dialed browser handles, addressed at
// host:base_port+0..N-1. Acquire/release is a buffered-channel
// semaphore doubling as the free list, the same shape as
// pkg/fn.ParMap's worker semaphore.
type Pool struct {
	free    chan core.BrowserHandle
	timeout time.Duration
}

// New dials size browser sessions at host:basePort..host:basePort+size-1 and
// returns a ready Pool. If any dial fails, already-dialed handles are closed
// before returning the error.
func New(ctx context.Context, dialer core.BrowserDialer, host string, basePort, size int, navigateTimeout time.Duration) (*Pool, error) {
	free := make(chan core.BrowserHandle, size)
	dialed := make([]core.BrowserHandle, 0, size)

	for i := 0; i < size; i++ {
		addr := fmt.Sprintf("%s:%d", host, basePort+i)
		h, err := dialer.Dial(ctx, addr)
		if err != nil {
			for _, d := range dialed {
				d.Close()
			}
			return nil, fmt.Errorf("browserpool: dial %s: %w", addr, err)
		}
		dialed = append(dialed, h)
		free <- h
	}

	return &Pool{free: free, timeout: navigateTimeout}, nil
}

// Navigate acquires a handle, loads url under the pool's per-navigation
// timeout (2s default), and releases the handle back to the pool
// whether or not the navigation succeeded.
func (p *Pool) Navigate(ctx context.Context, url string) (string, error) {
	var h core.BrowserHandle
	select {
	case h = <-p.free:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { p.free <- h }()

	navCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	html, err := h.Navigate(navCtx, url)
	if err != nil {
		if navCtx.Err() != nil {
			return "", fmt.Errorf("%w: navigate %s: %v", core.ErrTimeout, url, navCtx.Err())
		}
		return "", err
	}
	return html, nil
}

// Close tears down every pooled handle. Callers must not use the pool after
// calling Close.
func (p *Pool) Close() error {
	close(p.free)
	var firstErr error
	for h := range p.free {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package localize

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultPollInterval is how often a pending refresh checks the widget.
const DefaultPollInterval = 100 * time.Millisecond

// RefreshResult is the outcome of a tooltip refresh request.
type RefreshResult int

const (
	RefreshPending RefreshResult = iota
	RefreshSucceeded
	RefreshTimedOut
	RefreshCanceled
)

func (r RefreshResult) String() string {
	switch r {
	case RefreshSucceeded:
		return "succeeded"
	case RefreshTimedOut:
		return "timed_out"
	case RefreshCanceled:
		return "canceled"
	default:
		return "pending"
	}
}

// RefreshHandle tracks one in-flight refresh.
type RefreshHandle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result RefreshResult
}

// Cancel stops the poll. It is safe to call more than once and after the
// refresh has finished.
func (h *RefreshHandle) Cancel() { h.cancel() }

// Done is closed once the refresh has a result.
func (h *RefreshHandle) Done() <-chan struct{} { return h.done }

// Result returns the outcome, or RefreshPending while still polling.
func (h *RefreshHandle) Result() RefreshResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Wait blocks until the refresh finishes and returns its outcome.
func (h *RefreshHandle) Wait() RefreshResult {
	<-h.done
	return h.Result()
}

func (h *RefreshHandle) finish(r RefreshResult) {
	h.mu.Lock()
	h.result = r
	h.mu.Unlock()
	close(h.done)
}

// Refresher polls a widget until it is ready and then asks it to refresh.
// Only one request is in flight at a time: a new request cancels the
// previous one.
type Refresher struct {
	// Interval between readiness checks; DefaultPollInterval when zero.
	Interval time.Duration
	// Timeout bounds a request; zero waits until canceled.
	Timeout time.Duration
	// OnResult, when set, is called with every finished request's outcome.
	OnResult func(RefreshResult)

	mu      sync.Mutex
	current *RefreshHandle
}

// Request starts polling w. The returned handle reports the outcome.
func (r *Refresher) Request(ctx context.Context, w Widget) *RefreshHandle {
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	h := &RefreshHandle{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	prev := r.current
	r.current = h
	r.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	interval := r.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	go r.poll(ctx, h, w, interval)
	return h
}

// Stop cancels the in-flight request, if any, and waits for it to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	h := r.current
	r.current = nil
	r.mu.Unlock()
	if h != nil {
		h.Cancel()
		<-h.done
	}
}

func (r *Refresher) poll(ctx context.Context, h *RefreshHandle, w Widget, interval time.Duration) {
	defer h.cancel()

	result := r.wait(ctx, w, interval)
	if result == RefreshSucceeded {
		w.RefreshLinks()
	}

	r.mu.Lock()
	if r.current == h {
		r.current = nil
	}
	r.mu.Unlock()

	if r.OnResult != nil {
		r.OnResult(result)
	}
	h.finish(result)
}

func (r *Refresher) wait(ctx context.Context, w Widget, interval time.Duration) RefreshResult {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if ctx.Err() == nil && w.Ready() {
			return RefreshSucceeded
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return RefreshTimedOut
			}
			return RefreshCanceled
		case <-ticker.C:
		}
	}
}

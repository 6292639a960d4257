package vlcbridge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// stateSignal wakes waiters whenever the engine reports a state
// change. Waiters grab the channel before checking the state so a
// change in between is never missed.
type stateSignal struct {
	mu sync.Mutex
	ch chan struct{}
}

func newStateSignal() *stateSignal {
	return &stateSignal{ch: make(chan struct{})}
}

func (s *stateSignal) wait() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ch
}

func (s *stateSignal) broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.ch)
	s.ch = make(chan struct{})
}

// waitFor blocks until cond holds. The engine signal is the main
// wake up, poll catches states reached without a notification.
// A zero timeout leaves the bound to ctx alone.
func waitFor(ctx context.Context, sig *stateSignal, poll, timeout time.Duration, what string, cond func() bool) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		changed := sig.wait()
		if cond() {
			return nil
		}

		select {
		case <-changed:
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		}
	}
}

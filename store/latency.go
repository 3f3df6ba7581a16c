package store

import (
	"context"
	"time"
)

// wait applies simulated latency before an operation touches state.
// Cancellation is only observed here; once an operation starts it completes.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

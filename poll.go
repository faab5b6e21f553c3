package captcha

import (
	"context"
	"log/slog"
	"time"
)

// Default polling parameters, matching the pace the services recommend.
const (
	DefaultTimeout      = 120 * time.Second
	DefaultPollInterval = 5 * time.Second
)

// awaitSolution drives a submitted task to completion. Ready returns the
// solution immediately. A poll error is terminal for this backend and is
// propagated without retry. Pending sleeps interval between attempts until
// timeout has elapsed, then fails with ErrPollTimeout. The sleep aborts
// early when ctx is canceled.
func awaitSolution(ctx context.Context, b Backend, handle JobHandle, timeout, interval time.Duration) (string, error) {
	start := time.Now()
	for {
		status, err := b.Poll(ctx, handle)
		if err != nil {
			return "", err
		}
		if status.State == StateReady {
			return status.Solution, nil
		}
		if time.Since(start) >= timeout {
			return "", backendErr(b.Name(), ErrPollTimeout, nil, "no solution after %s", timeout)
		}
		slog.Debug("captcha not ready",
			slog.String("service", b.Name()), slog.String("task", string(handle)))
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

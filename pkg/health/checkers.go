package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// SignalCheck fails until the channel returned by signal is closed. A nil
// channel means there is nothing to wait for.
func SignalCheck(signal func() <-chan struct{}, pending string) CheckFunc {
	return func(ctx context.Context) error {
		ch := signal()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return errors.New(pending)
		}
	}
}

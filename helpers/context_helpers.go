package helpers

import "context"

// IgnoreContext runs fn synchronously after checking that ctx is still
// alive. Meant for short local operations that cannot be interrupted.
func IgnoreContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// Await runs fn on its own goroutine and waits for it or for ctx,
// whichever finishes first. When ctx wins, fn keeps running to completion
// in the background and its result is discarded.
func Await(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

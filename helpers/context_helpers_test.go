package helpers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rawbytedev/ldb/helpers"
	"github.com/stretchr/testify/require"
)

func TestIgnoreContext(t *testing.T) {
	boom := errors.New("boom")
	require.ErrorIs(t, helpers.IgnoreContext(context.Background(), func() error { return boom }), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := helpers.IgnoreContext(ctx, func() error {
		t.Fatal("fn must not run once the context is dead")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAwait(t *testing.T) {
	require.NoError(t, helpers.Await(context.Background(), func() error { return nil }))

	boom := errors.New("boom")
	require.ErrorIs(t, helpers.Await(context.Background(), func() error { return boom }), boom)
}

func TestAwaitCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	done := make(chan struct{})

	errs := make(chan error, 1)
	go func() {
		errs <- helpers.Await(ctx, func() error {
			<-release
			close(done)
			return nil
		})
	}()

	cancel()
	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not return on cancellation")
	}

	// The abandoned fn still runs to completion.
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned fn never completed")
	}
}

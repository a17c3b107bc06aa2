package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/utils/async"
)

func TestDispatch(t *testing.T) {
	t.Run("handler runs asynchronously", func(t *testing.T) {
		done := make(chan struct{})
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			close(done)
			return nil
		})

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not run")
		}
	})

	t.Run("handler survives caller context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		async.Dispatch(ctx, func(ctx context.Context) error {
			done <- ctx.Err()
			return nil
		})

		select {
		case err := <-done:
			gt.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not run")
		}
	})

	t.Run("handler error does not panic", func(t *testing.T) {
		done := make(chan struct{})
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer close(done)
			return errors.New("handler failure")
		})
		<-done
	})

	t.Run("panic in handler is recovered", func(t *testing.T) {
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
		// Give the goroutine time to panic and recover; the test fails by
		// crashing the process if recovery is missing.
		time.Sleep(100 * time.Millisecond)
	})
}

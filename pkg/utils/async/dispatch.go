package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs a handler in a new goroutine with panic recovery. The
// handler gets a fresh background context carrying the caller's logger, so
// cancellation of the originating request does not abort the pipeline run.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	logger := ctxlog.From(ctx)
	newCtx := ctxlog.With(context.Background(), logger)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := handler(newCtx); err != nil {
			logger.Error("error in async handler", "error", err)
		}
	}()
}

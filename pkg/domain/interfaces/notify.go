package interfaces

import (
	"context"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

// Notifier delivers a non-critical notification about a processed PR.
// Failures are logged as warnings by callers and never fail the invocation.
type Notifier interface {
	Notify(ctx context.Context, repo string, number int, result *model.ProcessResult) error
}

package interfaces

import (
	"context"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// ChangesetUseCase runs the full classification pipeline for one PR
type ChangesetUseCase interface {
	// ProcessPullRequest builds and persists changesets for a PR
	ProcessPullRequest(ctx context.Context, owner, repo string, number int) (*model.ProcessResult, error)
}

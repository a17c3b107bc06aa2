package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bellwether/pkg/domain/interfaces"
	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/utils/async"
)

type webhookUseCase struct {
	changesetUC interfaces.ChangesetUseCase
}

// NewWebhook creates a webhook use case that dispatches supported PR events
// to the changeset pipeline
func NewWebhook(changesetUC interfaces.ChangesetUseCase) interfaces.WebhookUseCase {
	return &webhookUseCase{changesetUC: changesetUC}
}

// ProcessEvent validates the event and runs the pipeline asynchronously so
// the webhook response returns before classification completes
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"sender", event.Sender,
	)

	if !event.IsSupportedEvent() {
		logger.Info("Unsupported event, ignoring",
			"type", event.Type, "action", event.Action)
		return nil
	}

	var prEvent github.PullRequestEvent
	if err := json.Unmarshal(event.RawPayload, &prEvent); err != nil {
		return goerr.Wrap(err, "failed to unmarshal PR event")
	}

	owner := prEvent.GetRepo().GetOwner().GetLogin()
	repo := prEvent.GetRepo().GetName()
	number := prEvent.GetPullRequest().GetNumber()
	if owner == "" || repo == "" || number == 0 {
		return goerr.New("missing repository or PR number in event payload")
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		_, err := uc.changesetUC.ProcessPullRequest(ctx, owner, repo, number)
		return err
	})

	return nil
}

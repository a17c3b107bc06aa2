package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/bellwether/pkg/domain/interfaces"
	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

type slackNotifier struct {
	webhookURL string
}

// NewSlackNotifier creates a Slack webhook notifier. This is a non-critical
// sink: callers log delivery failures as warnings.
func NewSlackNotifier(webhookURL string) interfaces.Notifier {
	return &slackNotifier{webhookURL: webhookURL}
}

// Notify posts a short message about the processed PR
func (n *slackNotifier) Notify(ctx context.Context, repo string, number int, result *model.ProcessResult) error {
	text := fmt.Sprintf("Processed %s#%d: %d changeset(s)", repo, number, len(result.Changesets))
	if result.Decision != nil {
		text += fmt.Sprintf(" (bump: %s)", result.Decision.BumpType)
	}
	if result.DryRun {
		text += " [dry-run]"
	}

	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook")
	}
	return nil
}

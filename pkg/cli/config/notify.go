package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/bellwether/pkg/domain/interfaces"
	"github.com/m-mizutani/bellwether/pkg/infra/notify"
)

// Notify holds optional notification sink configuration
type Notify struct {
	SlackWebhookURL string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for run notifications",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("BELLWETHER_SLACK_WEBHOOK_URL"),
		},
	}
}

// Build returns a notifier, or nil when none is configured
func (c *Notify) Build() interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	return notify.NewSlackNotifier(c.SlackWebhookURL)
}

package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/bellwether/pkg/cli/config"
	controller "github.com/m-mizutani/bellwether/pkg/controller/http"
	"github.com/m-mizutani/bellwether/pkg/infra/store"
	"github.com/m-mizutani/bellwether/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		githubCfg config.GitHub
		rulesCfg  config.Rules
		notifyCfg config.Notify
		outDir    string
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, rulesCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, &cli.StringFlag{
		Name:        "dir",
		Usage:       "Repository root where changeset fragments are written",
		Value:       ".",
		Destination: &outDir,
		Sources:     cli.EnvVars("BELLWETHER_DIR"),
	})

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server handling GitHub webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting bellwether server",
				slog.String("addr", serverCfg.Addr),
			)

			ghClient, err := githubCfg.Build()
			if err != nil {
				return err
			}

			rules, err := rulesCfg.Load()
			if err != nil {
				return err
			}

			opts := []usecase.ChangesetOption{
				usecase.WithRules(rules),
			}
			if notifier := notifyCfg.Build(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}

			changesetUC := usecase.NewChangeset(ghClient, store.NewFragmentStore(outDir), opts...)
			webhookUC := usecase.NewWebhook(changesetUC)

			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
